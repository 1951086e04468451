package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config collects every runtime setting the server needs. Values come from
// the environment; a .env file loaded by the caller feeds the same variables
// in development.
type Config struct {
	DatabaseURL string
	Port        string
	Development bool

	Redis   RedisConfig
	Archive ArchiveConfig
}

// RedisConfig holds cache connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ArchiveConfig holds the object store settings for movement exports.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// Load reads configuration from the environment. DATABASE_URL is the only
// required variable; everything else has a local-development default.
func Load() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return &Config{
		DatabaseURL: databaseURL,
		Port:        envOr("PORT", "8080"),
		Development: os.Getenv("APP_ENV") == "development",
		Redis: RedisConfig{
			Addr:     envOr("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envIntOr("REDIS_DB", 0),
		},
		Archive: ArchiveConfig{
			Endpoint:  envOr("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: envOr("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: envOr("MINIO_SECRET_KEY", "minioadmin"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
			Bucket:    envOr("ARCHIVE_BUCKET", "shelfstock-archives"),
		},
	}, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
