package imports

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"table-import/common"
	"table-import/parsers"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchSize is the number of rows written in a single upsert
const BatchSize = 500

// MaxUploadSize bounds the size of an uploaded table or JSON request body, which is held in memory while parsing
var MaxUploadSize int64 = 32 << 20

// CreateImportRequest is the JSON form of an import: the table is sent inline
type CreateImportRequest struct {
	ResourceType string `json:"resource_type" binding:"required,oneof=users articles"`
	Data         string `json:"data" binding:"required"`
}

// CreateImportResponse represents the response for import job creation
type CreateImportResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// GetImportResponse represents the response for import job status
type GetImportResponse struct {
	JobID          string                          `json:"job_id"`
	ResourceType   string                          `json:"resource_type"`
	Status         string                          `json:"status"`
	Headers        []string                        `json:"headers,omitempty"`
	TotalRecords   int                             `json:"total_records"`
	ProcessedCount int                             `json:"processed_count"`
	SuccessCount   int                             `json:"success_count"`
	FailCount      int                             `json:"fail_count"`
	Errors         []common.RecordValidationResult `json:"errors,omitempty"`
	CreatedAt      string                          `json:"created_at"`
	UpdatedAt      string                          `json:"updated_at"`
	CompletedAt    *string                         `json:"completed_at,omitempty"`
}

// HeadersRequest carries a table whose header row should be inspected
type HeadersRequest struct {
	Data string `json:"data"`
}

// HeadersResponse lists the distinct column names of a table, sorted
type HeadersResponse struct {
	Headers []string `json:"headers"`
}

// runJob starts processing of a created job
var runJob = func(jobID string) {
	go ProcessImportJob(jobID)
}

// RegisterRoutes mounts the import endpoints on r
func RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", CreateImport)
	r.POST("/headers", InspectHeaders)
	r.GET("/:job_id", GetImport)
}

// CreateImport godoc
// @Summary Create a new import job
// @Description Creates an import job that loads users or articles from a comma separated table
// @Tags imports
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Key used to deduplicate imports, defaults to the table checksum"
// @Param file formData file false "Table to import (.csv or .txt)"
// @Param resource_type formData string false "Type of resource (users or articles)"
// @Success 202 {object} CreateImportResponse "Import job created"
// @Success 200 {object} CreateImportResponse "Existing job returned (idempotency)"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /imports [post]
func CreateImport(c *gin.Context) {
	db := common.GetDB()

	resourceType, content, err := readImport(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checksum := common.Checksum(content)
	idempotencyKey := c.GetHeader("Idempotency-Key")
	defaultKey := idempotencyKey == ""
	if defaultKey {
		idempotencyKey = resourceType + ":" + checksum
	}

	var existingJob common.ImportJob
	err = db.Where("idempotency_key = ?", idempotencyKey).First(&existingJob).Error
	if err == nil && defaultKey && existingJob.Status == common.JobStatusFailed {
		// A failed job does not block a retry of the same table; its key is retired
		err = retireIdempotencyKey(db, &existingJob)
		if err != nil {
			log.Printf("Failed to retire idempotency key of job %s: %v", existingJob.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up import job"})
			return
		}
		err = gorm.ErrRecordNotFound
	}
	if err == nil {
		c.JSON(http.StatusOK, CreateImportResponse{
			JobID:     existingJob.ID,
			Status:    existingJob.Status,
			CreatedAt: existingJob.CreatedAt.Format(time.RFC3339),
		})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up import job"})
		return
	}

	filePath, err := saveUpload(content)
	if err != nil {
		log.Printf("Failed to save upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	now := time.Now()
	job := common.ImportJob{
		ID:             uuid.New().String(),
		IdempotencyKey: idempotencyKey,
		ResourceType:   resourceType,
		Status:         common.JobStatusPending,
		FilePath:       filePath,
		Checksum:       checksum,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := db.Create(&job).Error; err != nil {
		os.Remove(filePath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create import job"})
		return
	}

	runJob(job.ID)

	c.JSON(http.StatusAccepted, CreateImportResponse{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	})
}

// retireIdempotencyKey frees the key of a failed job so a new job can take it
func retireIdempotencyKey(db *gorm.DB, job *common.ImportJob) error {
	return db.Model(job).Update("idempotency_key", job.IdempotencyKey+":failed:"+job.ID).Error
}

// GetImport godoc
// @Summary Get import job status
// @Description Retrieves the status and progress of an import job
// @Tags imports
// @Produce json
// @Param job_id path string true "Import Job ID"
// @Success 200 {object} GetImportResponse "Import job details"
// @Failure 404 {object} map[string]string "Job not found"
// @Router /imports/{job_id} [get]
func GetImport(c *gin.Context) {
	db := common.GetDB()
	jobID := c.Param("job_id")

	var job common.ImportJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Import job not found"})
		return
	}

	c.Set(common.RowsProcessedKey, job.ProcessedCount)

	response := GetImportResponse{
		JobID:          job.ID,
		ResourceType:   job.ResourceType,
		Status:         job.Status,
		TotalRecords:   job.TotalRecords,
		ProcessedCount: job.ProcessedCount,
		SuccessCount:   job.SuccessCount,
		FailCount:      job.FailCount,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      job.UpdatedAt.Format(time.RFC3339),
	}

	if job.CompletedAt != nil {
		completedStr := job.CompletedAt.Format(time.RFC3339)
		response.CompletedAt = &completedStr
	}

	if job.Headers != "" {
		json.Unmarshal([]byte(job.Headers), &response.Headers)
	}

	if job.Errors != "" {
		var rowErrors []common.RecordValidationResult
		if err := json.Unmarshal([]byte(job.Errors), &rowErrors); err == nil {
			response.Errors = rowErrors
		}
	}

	c.JSON(http.StatusOK, response)
}

// InspectHeaders godoc
// @Summary List the column names of a table
// @Description Returns the distinct names in the first line of the submitted table, sorted
// @Tags imports
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Success 200 {object} HeadersResponse "Column names"
// @Failure 400 {object} map[string]string "Bad request or empty table"
// @Router /imports/headers [post]
func InspectHeaders(c *gin.Context) {
	var data string
	if strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
		content, err := readUploadedFile(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		data = string(content)
	} else {
		var req HeadersRequest
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		data = req.Data
	}

	names, err := parsers.NewTableParser[parsers.Record](data).HeaderNames()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	headers := make([]string, 0, len(names))
	for name := range names {
		headers = append(headers, name)
	}
	sort.Strings(headers)

	c.JSON(http.StatusOK, HeadersResponse{Headers: headers})
}

// readImport extracts the resource type and table contents from a multipart or JSON request
func readImport(c *gin.Context) (string, []byte, error) {
	if strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
		resourceType := c.PostForm("resource_type")
		if resourceType != "users" && resourceType != "articles" {
			return "", nil, errors.New("resource_type must be users or articles")
		}
		content, err := readUploadedFile(c)
		if err != nil {
			return "", nil, err
		}
		return resourceType, content, nil
	}

	var req CreateImportRequest
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", nil, err
	}
	return req.ResourceType, []byte(req.Data), nil
}

func readUploadedFile(c *gin.Context) ([]byte, error) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return nil, errors.New("file is required")
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".txt" {
		return nil, errors.New("file must be .csv or .txt")
	}

	content, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(content)) > MaxUploadSize {
		return nil, errors.New("file is too large")
	}
	return content, nil
}

func saveUpload(content []byte) (string, error) {
	if err := os.MkdirAll(common.UploadsDir, 0755); err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("%s_%s.csv", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
	filePath := filepath.Join(common.UploadsDir, fileName)

	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return "", err
	}
	return filePath, nil
}
