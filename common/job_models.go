package common

import (
	"time"

	"gorm.io/gorm"
)

// Import job statuses
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ImportJob tracks the status of a table import
type ImportJob struct {
	ID             string     `gorm:"primaryKey;type:text" json:"id"`
	IdempotencyKey string     `gorm:"uniqueIndex;not null" json:"idempotency_key"`
	ResourceType   string     `gorm:"not null" json:"resource_type"` // users, articles
	Status         string     `gorm:"not null" json:"status"`        // pending, processing, completed, failed
	FilePath       string     `json:"file_path,omitempty"`
	Checksum       string     `gorm:"index" json:"checksum"`
	Headers        string     `gorm:"type:text" json:"headers,omitempty"` // JSON array, header row as parsed
	TotalRecords   int        `gorm:"default:0" json:"total_records"`
	ProcessedCount int        `gorm:"default:0" json:"processed_count"`
	SuccessCount   int        `gorm:"default:0" json:"success_count"`
	FailCount      int        `gorm:"default:0" json:"fail_count"`
	Errors         string     `gorm:"type:text" json:"errors,omitempty"` // JSON array of errors
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// ApiMetric tracks API performance metrics
type ApiMetric struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RequestID     string    `gorm:"index" json:"request_id"`
	Endpoint      string    `gorm:"not null" json:"endpoint"`
	Method        string    `gorm:"not null" json:"method"`
	StatusCode    int       `gorm:"not null" json:"status_code"`
	DurationMs    int       `gorm:"not null" json:"duration_ms"`
	RowsProcessed int       `gorm:"default:0" json:"rows_processed"`
	Errors        string    `gorm:"type:text" json:"errors,omitempty"` // JSON errors
	Timestamp     time.Time `gorm:"not null" json:"timestamp"`
}

func (ImportJob) TableName() string { return "import_jobs" }
func (ApiMetric) TableName() string { return "api_metrics" }

// AutoMigrateJobs creates job tracking tables
func AutoMigrateJobs(db *gorm.DB) error {
	return db.AutoMigrate(&ImportJob{}, &ApiMetric{})
}
