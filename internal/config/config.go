package config

import (
	"os"
	"strconv"
	"time"

	"github.com/TbrosN/clarity/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `validate:"required"`
	Server   ServerConfig   `validate:"required"`
	Insights InsightsConfig `validate:"required"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string `validate:"required"`
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string `validate:"required"`
}

// InsightsConfig holds the insight pipeline settings. The generator is an
// optional collaborator: Enabled=false or a missing APIKey short-circuits
// generation to a static tip before any call is attempted.
type InsightsConfig struct {
	Enabled         bool
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	MaxInsights     int
	WindowDays      int // evidence window, bounded to [7, 14]
	StrictGrounding bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	config.Server = ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}

	config.Insights = loadInsightsConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:     url,
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}, nil
}

func loadInsightsConfig() InsightsConfig {
	cfg := InsightsConfig{
		Enabled:         getEnvBoolOrDefault("INSIGHTS_ENABLED", true),
		APIKey:          os.Getenv("INSIGHTS_API_KEY"),
		Model:           getEnvOrDefault("INSIGHTS_MODEL", "anthropic.claude-3-5-haiku-20241022-v1:0"),
		BaseURL:         getEnvOrDefault("INSIGHTS_BASE_URL", "https://bedrock-runtime.us-east-1.amazonaws.com"),
		Timeout:         getEnvDurationOrDefault("INSIGHTS_TIMEOUT", 15*time.Second),
		MaxInsights:     getEnvIntOrDefault("INSIGHTS_MAX_ITEMS", 4),
		WindowDays:      getEnvIntOrDefault("INSIGHTS_WINDOW_DAYS", 14),
		StrictGrounding: getEnvBoolOrDefault("INSIGHTS_STRICT_GROUNDING", false),
	}

	// Clamp the evidence window to the supported range
	if cfg.WindowDays < 7 {
		cfg.WindowDays = 7
	}
	if cfg.WindowDays > 14 {
		cfg.WindowDays = 14
	}
	return cfg
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	if config.Insights.MaxInsights <= 0 {
		return errors.ConfigInvalid("INSIGHTS_MAX_ITEMS must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
