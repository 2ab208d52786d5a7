package articles

import (
	"encoding/json"
	"strings"
	"time"

	"table-import/common"
	"table-import/parsers"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TagSeparator separates tags inside the tags column.
// Commas cannot be used because they delimit fields.
const TagSeparator = "|"

// AllowedStatuses lists the accepted values of the status column
var AllowedStatuses = []string{"draft", "published"}

// ArticleValidator validates article rows for bulk import
type ArticleValidator struct {
	existingSlugs  map[string]bool
	existingIDs    map[string]bool
	validAuthorIDs map[string]bool
	checkAuthors   bool
}

// NewArticleValidator creates a validator with existing slugs, article ids and user ids from db pre-loaded.
// With a nil db author ids are only checked for UUID format.
func NewArticleValidator(db *gorm.DB) *ArticleValidator {
	validator := &ArticleValidator{
		existingSlugs:  make(map[string]bool),
		existingIDs:    make(map[string]bool),
		validAuthorIDs: make(map[string]bool),
	}

	if db == nil {
		return validator
	}
	validator.checkAuthors = true

	var slugs []string
	db.Model(&ArticleModel{}).Pluck("slug", &slugs)
	for _, s := range slugs {
		validator.existingSlugs[s] = true
	}

	var ids []string
	db.Model(&ArticleModel{}).Pluck("id", &ids)
	for _, id := range ids {
		validator.existingIDs[id] = true
	}

	var userIDs []string
	db.Table("users").Pluck("id", &userIDs)
	for _, id := range userIDs {
		validator.validAuthorIDs[id] = true
	}

	return validator
}

// ArticleSlug returns the row's slug, deriving one from the title when the column is empty
func ArticleSlug(record parsers.Record) string {
	if s := strings.TrimSpace(record["slug"]); s != "" {
		return s
	}
	return slug.Make(strings.TrimSpace(record["title"]))
}

// ValidateArticleRecord validates a single article row
func (v *ArticleValidator) ValidateArticleRecord(record parsers.Record, rowNum int) *common.RecordValidationResult {
	result := common.NewRecordResult(rowNum, strings.TrimSpace(record["id"]))

	id := strings.TrimSpace(record["id"])
	if id != "" {
		if _, err := uuid.Parse(id); err != nil {
			result.AddError("id", "Invalid UUID format")
		}
		if v.existingIDs[id] {
			result.AddError("id", "ID already exists")
		}
	}

	result.Check(common.ValidateRequired("title", record["title"]))
	result.Check(common.ValidateRequired("body", record["body"]))

	articleSlug := ArticleSlug(record)
	if articleSlug == "" {
		result.AddError("slug", "Slug is required")
	} else {
		if !common.ValidateKebabCase(articleSlug) {
			result.AddError("slug", "Slug must be in kebab-case format (lowercase, hyphen-separated)")
		}
		if v.existingSlugs[articleSlug] {
			result.AddError("slug", "Slug already exists")
		}
	}

	authorID := strings.TrimSpace(record["author_id"])
	if authorID == "" {
		result.AddError("author_id", "Author ID is required")
	} else if _, err := uuid.Parse(authorID); err != nil {
		result.AddError("author_id", "Invalid author ID UUID format")
	} else if v.checkAuthors && !v.validAuthorIDs[authorID] {
		result.AddError("author_id", "Author ID does not exist in users table")
	}

	status := strings.TrimSpace(record["status"])
	result.Check(common.ValidateEnum("status", status, AllowedStatuses))

	publishedAt := strings.TrimSpace(record["published_at"])
	if status == "published" && publishedAt == "" {
		result.AddError("published_at", "Published articles must have published_at timestamp")
	}
	if status == "draft" && publishedAt != "" {
		result.AddError("published_at", "Draft articles must not have published_at timestamp")
	}
	result.Check(common.ValidateTimestamp("published_at", publishedAt))
	result.Check(common.ValidateTimestamp("created_at", strings.TrimSpace(record["created_at"])))

	if result.Valid {
		v.existingSlugs[articleSlug] = true
		if id != "" {
			v.existingIDs[id] = true
		}
	}

	return result
}

// SplitTags splits the tags column, dropping empty entries
func SplitTags(value string) []string {
	tags := []string{}
	for _, tag := range strings.Split(value, TagSeparator) {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// NormalizeArticleRecord fills defaults and converts a validated row to an ArticleModel
func NormalizeArticleRecord(record parsers.Record) ArticleModel {
	now := time.Now().UTC()

	id := strings.TrimSpace(record["id"])
	if id == "" {
		id = uuid.New().String()
	}

	tagsJSON, _ := json.Marshal(SplitTags(record["tags"]))

	article := ArticleModel{
		ID:        id,
		Slug:      ArticleSlug(record),
		Title:     strings.TrimSpace(record["title"]),
		Body:      strings.TrimSpace(record["body"]),
		AuthorID:  strings.TrimSpace(record["author_id"]),
		Tags:      string(tagsJSON),
		Status:    strings.TrimSpace(record["status"]),
		CreatedAt: common.ParseTimestamp(strings.TrimSpace(record["created_at"]), now),
	}

	if publishedAt := strings.TrimSpace(record["published_at"]); publishedAt != "" {
		t := common.ParseTimestamp(publishedAt, now)
		article.PublishedAt = &t
	}

	return article
}

// RowTransform returns a parsers.RowTransform that keeps valid rows as ArticleModel values.
// Invalid rows are skipped and handed to report; blank rows are skipped silently.
func (v *ArticleValidator) RowTransform(report func(*common.RecordValidationResult)) parsers.RowTransform[ArticleModel] {
	rowNum := 0
	return func(record parsers.Record) (ArticleModel, bool) {
		rowNum++
		if record.Blank() {
			return ArticleModel{}, false
		}

		result := v.ValidateArticleRecord(record, rowNum)
		if !result.Valid {
			if report != nil {
				report(result)
			}
			return ArticleModel{}, false
		}
		return NormalizeArticleRecord(record), true
	}
}

// ToRow renders an article in Columns order
func ToRow(article ArticleModel) []string {
	var tags []string
	if article.Tags != "" {
		json.Unmarshal([]byte(article.Tags), &tags)
	}

	publishedAt := ""
	if article.PublishedAt != nil {
		publishedAt = article.PublishedAt.UTC().Format(time.RFC3339)
	}

	return []string{
		article.ID,
		article.Slug,
		article.Title,
		article.Body,
		article.AuthorID,
		strings.Join(tags, TagSeparator),
		article.Status,
		publishedAt,
		article.CreatedAt.UTC().Format(time.RFC3339),
	}
}
