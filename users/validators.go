package users

import (
	"strconv"
	"strings"
	"time"

	"table-import/common"
	"table-import/parsers"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AllowedRoles lists the accepted values of the role column
var AllowedRoles = []string{"admin", "author", "reader", "manager"}

// UserValidator validates user rows for bulk import
type UserValidator struct {
	existingEmails map[string]bool
	existingIDs    map[string]bool
}

// NewUserValidator creates a validator with the emails and ids already in db pre-loaded
func NewUserValidator(db *gorm.DB) *UserValidator {
	validator := &UserValidator{
		existingEmails: make(map[string]bool),
		existingIDs:    make(map[string]bool),
	}

	if db == nil {
		return validator
	}

	var emails []string
	db.Model(&UserModel{}).Pluck("email", &emails)
	for _, email := range emails {
		validator.existingEmails[strings.ToLower(email)] = true
	}

	var ids []string
	db.Model(&UserModel{}).Pluck("id", &ids)
	for _, id := range ids {
		validator.existingIDs[id] = true
	}

	return validator
}

// ValidateUserRecord validates a single user row
func (v *UserValidator) ValidateUserRecord(record parsers.Record, rowNum int) *common.RecordValidationResult {
	result := common.NewRecordResult(rowNum, strings.TrimSpace(record["id"]))

	// ID is optional and generated when empty
	id := strings.TrimSpace(record["id"])
	if id != "" {
		if _, err := uuid.Parse(id); err != nil {
			result.AddError("id", "Invalid UUID format")
		}
		if v.existingIDs[id] {
			result.AddError("id", "ID already exists")
		}
	}

	email := strings.TrimSpace(record["email"])
	if email == "" {
		result.AddError("email", "Email is required")
	} else {
		if !common.ValidateEmail(email) {
			result.AddError("email", "Invalid email format")
		}
		if v.existingEmails[strings.ToLower(email)] {
			result.AddError("email", "Email already exists")
		}
	}

	result.Check(common.ValidateRequired("name", record["name"]))
	result.Check(common.ValidateEnum("role", strings.TrimSpace(record["role"]), AllowedRoles))

	active := strings.ToLower(strings.TrimSpace(record["active"]))
	if active != "true" && active != "false" {
		result.AddError("active", "Active must be 'true' or 'false'")
	}

	result.Check(common.ValidateTimestamp("created_at", strings.TrimSpace(record["created_at"])))
	result.Check(common.ValidateTimestamp("updated_at", strings.TrimSpace(record["updated_at"])))

	// Later rows in the same table may not reuse this email or id
	if result.Valid {
		v.existingEmails[strings.ToLower(email)] = true
		if id != "" {
			v.existingIDs[id] = true
		}
	}

	return result
}

// NormalizeUserRecord fills defaults and converts a validated row to a UserModel
func NormalizeUserRecord(record parsers.Record) UserModel {
	now := time.Now().UTC()

	id := strings.TrimSpace(record["id"])
	if id == "" {
		id = uuid.New().String()
	}

	return UserModel{
		ID:        id,
		Email:     strings.TrimSpace(record["email"]),
		Name:      strings.TrimSpace(record["name"]),
		Role:      strings.TrimSpace(record["role"]),
		Active:    strings.ToLower(strings.TrimSpace(record["active"])) == "true",
		CreatedAt: common.ParseTimestamp(strings.TrimSpace(record["created_at"]), now),
		UpdatedAt: common.ParseTimestamp(strings.TrimSpace(record["updated_at"]), now),
	}
}

// RowTransform returns a parsers.RowTransform that keeps valid rows as UserModel values.
// Invalid rows are skipped and handed to report; blank rows are skipped silently.
func (v *UserValidator) RowTransform(report func(*common.RecordValidationResult)) parsers.RowTransform[UserModel] {
	rowNum := 0
	return func(record parsers.Record) (UserModel, bool) {
		rowNum++
		if record.Blank() {
			return UserModel{}, false
		}

		result := v.ValidateUserRecord(record, rowNum)
		if !result.Valid {
			if report != nil {
				report(result)
			}
			return UserModel{}, false
		}
		return NormalizeUserRecord(record), true
	}
}

// ToRow renders a user in Columns order
func ToRow(user UserModel) []string {
	return []string{
		user.ID,
		user.Email,
		user.Name,
		user.Role,
		strconv.FormatBool(user.Active),
		user.CreatedAt.UTC().Format(time.RFC3339),
		user.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
