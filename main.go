package main

import (
	"log"
	"net/http"

	"table-import/articles"
	"table-import/common"
	"table-import/exports"
	"table-import/imports"
	"table-import/parsers"
	"table-import/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Migrate creates every table the service uses
func Migrate(db *gorm.DB) error {
	if err := users.AutoMigrate(db); err != nil {
		return err
	}
	if err := articles.AutoMigrate(db); err != nil {
		return err
	}
	return common.AutoMigrateJobs(db)
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(cfg common.Config) *gin.Engine {
	r := gin.Default()
	r.RedirectTrailingSlash = false
	r.Use(common.MetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(common.AuthMiddleware(cfg.JWTSecret))
	imports.RegisterRoutes(v1.Group("/imports"))
	exports.RegisterRoutes(v1.Group("/exports"))

	return r
}

func main() {
	cfg := common.LoadConfig()
	if !parsers.SupportedEncoding(cfg.SourceEncoding) {
		log.Fatalf("Unsupported SOURCE_ENCODING %q", cfg.SourceEncoding)
	}

	db := common.Init(cfg)
	if err := Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Println("Failed to get sql.DB:", err)
	} else {
		defer sqlDB.Close()
	}

	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET is not set, API authentication is disabled")
	}

	r := NewRouter(cfg)

	log.Printf("Server starting on port %s...", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
