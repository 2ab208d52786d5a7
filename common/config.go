package common

import (
	"os"
)

// Config holds service settings read from the environment
type Config struct {
	Port           string
	DatabasePath   string
	UploadsDir     string
	JWTSecret      string
	SourceEncoding string
}

// LoadConfig reads settings from environment variables, falling back to defaults
func LoadConfig() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "./data/import.db"),
		UploadsDir:     getEnv("UPLOADS_DIR", "./uploads"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		SourceEncoding: getEnv("SOURCE_ENCODING", "utf-8"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
