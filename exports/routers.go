package exports

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"table-import/articles"
	"table-import/common"
	"table-import/parsers"
	"table-import/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BatchSize is the number of records fetched in a single query
const BatchSize = 2000

// RegisterRoutes mounts the export endpoint on r
func RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", StreamExport)
}

// StreamExport godoc
// @Summary Stream export data
// @Description Streams users or articles as a comma separated table that can be imported again
// @Tags exports
// @Produce text/csv
// @Param resource query string true "Resource type (users or articles)"
// @Success 200 {file} file "Streaming export data"
// @Failure 400 {object} map[string]string "Bad request"
// @Router /exports [get]
func StreamExport(c *gin.Context) {
	resource := c.Query("resource")
	if resource == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource parameter is required (users|articles)"})
		return
	}
	if resource != "users" && resource != "articles" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource, must be: users or articles"})
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.csv", resource, timestamp))

	c.Status(http.StatusOK)

	var (
		total int
		err   error
	)
	db := common.GetDB()
	switch resource {
	case "users":
		total, err = writeTable(c.Writer, db, users.Columns, users.ToRow)
	case "articles":
		total, err = writeTable(c.Writer, db, articles.Columns, articles.ToRow)
	}
	if err != nil {
		// Headers are already sent, so the error is only logged
		log.Printf("Export of %s stopped after %d rows: %v", resource, total, err)
		c.Error(err)
	}
	c.Set(common.RowsProcessedKey, total)
}

// writeTable writes the header row followed by every stored T, paging through the table by primary key
func writeTable[T any](w io.Writer, db *gorm.DB, columns []string, toRow func(T) []string) (int, error) {
	tw := parsers.NewTableWriter(w)
	if err := tw.Write(columns); err != nil {
		return 0, err
	}

	total := 0
	for offset := 0; ; offset += BatchSize {
		var batch []T
		if err := db.Order("id").Limit(BatchSize).Offset(offset).Find(&batch).Error; err != nil {
			return total, err
		}

		for _, item := range batch {
			if err := tw.Write(toRow(item)); err != nil {
				return total, err
			}
		}
		total += len(batch)

		if err := tw.Flush(); err != nil {
			return total, err
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		if len(batch) < BatchSize {
			break
		}
	}

	return total, nil
}
