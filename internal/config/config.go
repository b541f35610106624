package config

import (
	"os"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort           string
	DatabaseType         string
	DatabasePath         string
	DatabaseURL          string
	RedisAddr            string
	MigrationsPath       string
	SessionDuration      time.Duration
	SessionSecret        string
	UploadMaxSize        int64
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:           getEnv("PORT", "8080"),
		DatabaseType:         getEnv("DB_TYPE", "sqlite"),
		DatabasePath:         getEnv("DB_PATH", "./sliptrack.db"),
		DatabaseURL:          getEnv("DB_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		MigrationsPath:       getEnv("MIGRATIONS_PATH", "./migrations"),
		SessionDuration:      24 * time.Hour,
		SessionSecret:        getEnv("SESSION_SECRET", "dev-only-secret"),
		UploadMaxSize:        10 * 1024 * 1024, // 10MB workbook cap
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
