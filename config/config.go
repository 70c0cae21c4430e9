package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration parameters.
type Config struct {
	DatabaseURL   string
	ServerPort    int
	MigrationsURL string

	// StrictCompletion restricts completing a tournament to the in_progress
	// state. The permissive default matches the historical behavior of
	// allowing completion from any non-terminal state.
	StrictCompletion bool

	// Cloudflare R2 credentials for logo storage. Optional: when AccountID is
	// empty the upload endpoints are disabled.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from environment variables, optionally seeded
// from a .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	migrationsURL := os.Getenv("MIGRATIONS_URL")
	if migrationsURL == "" {
		migrationsURL = "file://migrations"
	}

	strict := false
	if strictStr := os.Getenv("TOURNAMENT_STRICT_COMPLETION"); strictStr != "" {
		strict, err = strconv.ParseBool(strictStr)
		if err != nil {
			return nil, fmt.Errorf("invalid TOURNAMENT_STRICT_COMPLETION environment variable: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		ServerPort:        port,
		MigrationsURL:     migrationsURL,
		StrictCompletion:  strict,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}
