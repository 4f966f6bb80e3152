package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubToken  string
	Org          string
	APIBaseURL   string // empty means api.github.com
	ExtraBots    []string
	RequestDelay time.Duration
	Concurrency  int

	// Reports
	MembersCSV string

	// Logging
	LogLevel  string
	LogFormat string

	// Storage
	StorageType string // "none", "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// Load loads the configuration from environment variables. Values from the
// given .env files are loaded first; with no files, ./.env is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 && envFiles[0] != "" {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, err
		}
	} else {
		// Load .env file if it exists (ignore error if not found)
		_ = godotenv.Load()
	}

	concurrency, err := getEnvInt("CONCURRENCY", 5)
	if err != nil {
		return nil, err
	}
	requestDelay, err := getEnvDuration("REQUEST_DELAY", 100*time.Millisecond)
	if err != nil {
		return nil, err
	}

	return &Config{
		GitHubToken:  getEnv("GITHUB_TOKEN", ""),
		Org:          getEnv("GITHUB_ORG", "docker"),
		APIBaseURL:   getEnv("GITHUB_API_URL", ""),
		ExtraBots:    splitList(getEnv("AUDIT_BOTS", "")),
		RequestDelay: requestDelay,
		Concurrency:  concurrency,
		MembersCSV:   getEnv("MEMBERS_CSV", "Github.csv"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "console"),
		StorageType:  getEnv("STORAGE_TYPE", "none"),
		SQLitePath:   getEnv("SQLITE_PATH", "./audit.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),
		APIPort:      getEnv("API_PORT", "8080"),
		APIHost:      getEnv("API_HOST", "localhost"),
		APIEndpoint:  getEnv("API_ENDPOINT", "http://localhost:8080"),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer variable; an unset variable yields defaultValue
func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: "must be an integer, got " + strconv.Quote(raw)}
	}
	return value, nil
}

// getEnvDuration parses a duration variable such as "250ms"; an unset
// variable yields defaultValue
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: "must be a duration such as 100ms, got " + strconv.Quote(raw)}
	}
	return value, nil
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// RecordingEnabled reports whether audit findings should be persisted
func (c *Config) RecordingEnabled() bool {
	return c.StorageType == "sqlite" || c.StorageType == "postgres"
}

// Validate validates the configuration required to talk to GitHub
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return &ConfigError{Field: "GITHUB_TOKEN", Message: "GitHub token is required"}
	}
	if c.Org == "" {
		return &ConfigError{Field: "GITHUB_ORG", Message: "organization is required"}
	}
	if c.Concurrency < 1 {
		return &ConfigError{Field: "CONCURRENCY", Message: "must be at least 1"}
	}
	if c.RequestDelay < 0 {
		return &ConfigError{Field: "REQUEST_DELAY", Message: "must not be negative"}
	}
	return c.ValidateStorage()
}

// ValidateStorage validates only the storage settings. The history commands
// and the API server do not need a GitHub token.
func (c *Config) ValidateStorage() error {
	switch c.StorageType {
	case "none", "sqlite":
	case "postgres":
		if c.PostgresURL == "" {
			return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
		}
	default:
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'none', 'sqlite' or 'postgres'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
