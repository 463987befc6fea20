package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// LLM provider settings
	OpenRouterAPIKey string `json:"-"` // Don't expose in JSON
	OpenRouterModel  string `json:"openrouter_model"`

	// X (Twitter) API settings
	XBearerToken string `json:"-"` // Don't expose in JSON

	// Google Sheets analytics settings (optional; memory-only when absent)
	GoogleProjectID   string `json:"google_project_id"`
	GoogleClientEmail string `json:"google_client_email"`
	GooglePrivateKey  string `json:"-"` // Don't expose in JSON
	SpreadsheetID     string `json:"spreadsheet_id"`

	// Upstream call settings
	MaxAttempts int `json:"max_attempts"`

	// Analytics flush schedule (cron expression)
	FlushSchedule string `json:"flush_schedule"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Host:              getEnvOrDefault("HOST", "0.0.0.0"),
		OpenRouterAPIKey:  getEnvOrDefault("OPENROUTER_API_KEY", ""),
		OpenRouterModel:   getEnvOrDefault("OPENROUTER_MODEL", "deepseek/deepseek-chat"),
		XBearerToken:      getEnvOrDefault("TWITTER_BEARER_TOKEN", ""),
		GoogleProjectID:   getEnvOrDefault("GOOGLE_PROJECT_ID", ""),
		GoogleClientEmail: getEnvOrDefault("GOOGLE_CLIENT_EMAIL", ""),
		GooglePrivateKey:  normalizePrivateKey(getEnvOrDefault("GOOGLE_PRIVATE_KEY", "")),
		SpreadsheetID:     getEnvOrDefault("SPREADSHEET_ID", ""),
		MaxAttempts:       getEnvOrDefaultInt("LLM_MAX_ATTEMPTS", 3),
		FlushSchedule:     getEnvOrDefault("ANALYTICS_FLUSH_SCHEDULE", "*/5 * * * *"),
	}

	return config, config.validate()
}

// SheetsConfigured reports whether the Google Sheets analytics sink can be used
func (c *Config) SheetsConfigured() bool {
	return c.GoogleClientEmail != "" && c.GooglePrivateKey != "" && c.SpreadsheetID != ""
}

// validate checks if required configuration values are present.
// All missing variables are reported at once so operators can fix
// the environment in a single pass.
func (c *Config) validate() error {
	var missing []string
	if c.OpenRouterAPIKey == "" {
		missing = append(missing, "OPENROUTER_API_KEY")
	}
	if c.XBearerToken == "" {
		missing = append(missing, "TWITTER_BEARER_TOKEN")
	}
	if len(missing) > 0 {
		return &ConfigError{
			Field:   strings.Join(missing, ", "),
			Message: "required environment variables are not set",
		}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// normalizePrivateKey turns escaped newlines from .env files into real ones
func normalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
