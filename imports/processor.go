package imports

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"table-import/articles"
	"table-import/common"
	"table-import/parsers"
	"table-import/users"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProcessImportJob parses the job's table and upserts the valid rows
func ProcessImportJob(jobID string) {
	db := common.GetDB()

	var job common.ImportJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		log.Printf("Import job %s not found: %v", jobID, err)
		return
	}

	job.Status = common.JobStatusProcessing
	job.UpdatedAt = time.Now()
	db.Save(&job)

	var processErr error
	switch job.ResourceType {
	case "users":
		processErr = processUsersImport(db, &job)
	case "articles":
		processErr = processArticlesImport(db, &job)
	default:
		processErr = fmt.Errorf("unknown resource type: %s", job.ResourceType)
	}

	now := time.Now()
	job.CompletedAt = &now
	job.UpdatedAt = now

	if processErr != nil {
		log.Printf("Import job %s failed: %v", job.ID, processErr)
		job.Status = common.JobStatusFailed
		appendJobFailure(&job, processErr)
	} else {
		job.Status = common.JobStatusCompleted
		log.Printf("Import job %s completed: %d ok, %d failed", job.ID, job.SuccessCount, job.FailCount)
	}

	db.Save(&job)
}

func processUsersImport(db *gorm.DB, job *common.ImportJob) error {
	parser, err := parsers.NewTableParserFromFile[users.UserModel](job.FilePath, parsers.WithEncoding(common.SourceEncoding))
	if err != nil {
		return err
	}

	var rejected []common.RecordValidationResult
	validator := users.NewUserValidator(db)
	rows := parser.ConvertRows(validator.RowTransform(func(r *common.RecordValidationResult) {
		rejected = append(rejected, *r)
	}))

	recordParseResult(job, parser.Headers(), len(rows), rejected)

	return saveBatches(db, job, rows, clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "role", "active", "updated_at"}),
	})
}

func processArticlesImport(db *gorm.DB, job *common.ImportJob) error {
	parser, err := parsers.NewTableParserFromFile[articles.ArticleModel](job.FilePath, parsers.WithEncoding(common.SourceEncoding))
	if err != nil {
		return err
	}

	var rejected []common.RecordValidationResult
	validator := articles.NewArticleValidator(db)
	rows := parser.ConvertRows(validator.RowTransform(func(r *common.RecordValidationResult) {
		rejected = append(rejected, *r)
	}))

	recordParseResult(job, parser.Headers(), len(rows), rejected)

	return saveBatches(db, job, rows, clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "body", "author_id", "tags", "status", "published_at"}),
	})
}

// recordParseResult stores what the parse pass found before any row is written
func recordParseResult(job *common.ImportJob, headers []string, valid int, rejected []common.RecordValidationResult) {
	headersJSON, _ := json.Marshal(headers)
	job.Headers = string(headersJSON)

	job.TotalRecords = valid + len(rejected)
	job.FailCount = len(rejected)
	job.ProcessedCount = len(rejected)

	if len(rejected) > 0 {
		errorsJSON, _ := json.Marshal(rejected)
		job.Errors = string(errorsJSON)
	}
}

// appendJobFailure adds err after the row errors already stored on the job
func appendJobFailure(job *common.ImportJob, err error) {
	var entries []common.RecordValidationResult
	if job.Errors != "" {
		if jsonErr := json.Unmarshal([]byte(job.Errors), &entries); jsonErr != nil {
			log.Printf("Import job %s has unreadable errors: %v", job.ID, jsonErr)
		}
	}

	failure := common.RecordValidationResult{}
	failure.AddError("import", err.Error())
	entries = append(entries, failure)

	errorsJSON, _ := json.Marshal(entries)
	job.Errors = string(errorsJSON)
}

// saveBatches upserts rows BatchSize at a time, saving job progress after each batch.
// When a batch fails, it and every later row are counted as failed.
func saveBatches[T any](db *gorm.DB, job *common.ImportJob, rows []T, onConflict clause.OnConflict) error {
	for start := 0; start < len(rows); start += BatchSize {
		end := min(start+BatchSize, len(rows))
		batch := rows[start:end]

		if err := db.Clauses(onConflict).Create(&batch).Error; err != nil {
			unsaved := len(rows) - start
			job.ProcessedCount += unsaved
			job.FailCount += unsaved
			return fmt.Errorf("saving rows %d-%d: %w", start+1, end, err)
		}

		job.ProcessedCount += len(batch)
		job.SuccessCount += len(batch)
		job.UpdatedAt = time.Now()
		db.Save(job)
	}
	return nil
}
