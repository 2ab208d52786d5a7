package common

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidationError describes one rejected field of a table row
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RecordValidationResult holds validation results for a single table row.
// RowNumber counts data rows from 1; the header line is not counted.
type RecordValidationResult struct {
	RowNumber int               `json:"row_number"`
	RecordID  string            `json:"record_id,omitempty"`
	Valid     bool              `json:"valid"`
	Errors    []ValidationError `json:"errors,omitempty"`
}

// NewRecordResult starts a valid result for a row
func NewRecordResult(rowNum int, recordID string) *RecordValidationResult {
	return &RecordValidationResult{
		RowNumber: rowNum,
		RecordID:  recordID,
		Valid:     true,
	}
}

// AddError marks the row invalid and records why
func (r *RecordValidationResult) AddError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// Check records err when it is not nil
func (r *RecordValidationResult) Check(err *ValidationError) {
	if err != nil {
		r.AddError(err.Field, err.Message)
	}
}

// ToJSON converts validation errors to JSON string
func (r *RecordValidationResult) ToJSON() string {
	if len(r.Errors) == 0 {
		return ""
	}
	data, _ := json.Marshal(r.Errors)
	return string(data)
}

// Email validation regex (simplified RFC 5322)
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if email format is valid
func ValidateEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

var kebabRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateKebabCase checks if string is in kebab-case format
func ValidateKebabCase(s string) bool {
	if s == "" {
		return false
	}
	return kebabRegex.MatchString(s)
}

// ValidateRequired checks if a string field is not empty
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", field),
		}
	}
	return nil
}

// ValidateEnum checks if value is in allowed list
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")),
	}
}

// ValidateTimestamp accepts an empty value or an RFC3339 timestamp
func ValidateTimestamp(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "Invalid timestamp format (use RFC3339)",
		}
	}
	return nil
}

// ParseTimestamp parses an RFC3339 value, returning fallback when it is empty or malformed
func ParseTimestamp(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fallback
	}
	return t
}
