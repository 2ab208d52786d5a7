package common

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys shared between handlers and middleware
const (
	RequestIDKey     = "request_id"
	RowsProcessedKey = "rows_processed"
)

// MetricsMiddleware records one ApiMetric per request.
// Handlers report how many table rows they handled via c.Set(RowsProcessedKey, n).
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		startTime := time.Now()

		c.Next()

		rowsProcessed := 0
		if rows, exists := c.Get(RowsProcessedKey); exists {
			if r, ok := rows.(int); ok {
				rowsProcessed = r
			}
		}

		errors := ""
		if len(c.Errors) > 0 {
			errors = c.Errors.String()
		}

		metric := ApiMetric{
			RequestID:     requestID,
			Endpoint:      c.FullPath(),
			Method:        c.Request.Method,
			StatusCode:    c.Writer.Status(),
			DurationMs:    int(time.Since(startTime).Milliseconds()),
			RowsProcessed: rowsProcessed,
			Errors:        errors,
			Timestamp:     startTime,
		}

		conn := GetDB()
		if conn == nil {
			return
		}
		if err := conn.Create(&metric).Error; err != nil {
			log.Printf("Failed to save metric for %s %s: %v", metric.Method, metric.Endpoint, err)
		}
	}
}
