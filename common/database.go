package common

import (
	"log"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db *gorm.DB

	// UploadsDir is where uploaded tables are stored until their import job runs
	UploadsDir = "./uploads"

	// SourceEncoding is the text encoding assumed for uploaded tables
	SourceEncoding = "utf-8"
)

// Init opens the sqlite database described by cfg and applies the directory settings
func Init(cfg Config) *gorm.DB {
	UploadsDir = cfg.UploadsDir
	SourceEncoding = cfg.SourceEncoding

	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Println("Failed to create database directory:", err)
		}
	}

	conn, err := InitWithDSN(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	return conn
}

// InitWithDSN opens a sqlite database at dsn and makes it the shared handle
func InitWithDSN(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	db = conn
	return db, nil
}

// GetDB returns the shared database handle
func GetDB() *gorm.DB {
	return db
}
