// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ArchiveConfig holds the optional S3-compatible offsite archive settings.
// Offsite copies are disabled unless bucket and credentials are all set.
type ArchiveConfig struct {
	// Endpoint overrides the S3 endpoint for compatible providers
	// (MinIO, R2). Empty means AWS.
	Endpoint string

	// Bucket receives export payloads and backup snapshots.
	Bucket string

	// Region is the S3 region. Defaults to "us-east-1".
	Region string

	// AccessKey and SecretKey are static credentials.
	AccessKey string
	SecretKey string

	// Passphrase enables client-side encryption of uploaded objects when
	// non-empty.
	Passphrase string
}

// Enabled reports whether the archive settings are complete enough to use.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != "" && a.AccessKey != "" && a.SecretKey != ""
}

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request body sizes. Defaults to 10 MiB, sized for
	// import payloads.
	MaxBodyBytes int64

	// Archive configures the optional offsite copy of exports and backups.
	Archive ArchiveConfig
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		MaxBodyBytes: getEnvInt64("MAX_BODY_BYTES", 10<<20),
		Archive: ArchiveConfig{
			Endpoint:   os.Getenv("ARCHIVE_S3_ENDPOINT"),
			Bucket:     os.Getenv("ARCHIVE_S3_BUCKET"),
			Region:     getEnv("ARCHIVE_S3_REGION", "us-east-1"),
			AccessKey:  os.Getenv("ARCHIVE_S3_ACCESS_KEY"),
			SecretKey:  os.Getenv("ARCHIVE_S3_SECRET_KEY"),
			Passphrase: os.Getenv("ARCHIVE_PASSPHRASE"),
		},
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt64 parses the environment variable named by key as an integer,
// falling back on absence or parse failure.
func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
