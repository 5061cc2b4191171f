package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the main configuration for the back office service
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Uploads  UploadsConfig  `json:"uploads"`
	Features FeatureConfig  `json:"features"`
	LogLevel string         `json:"log_level"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// AuthConfig contains authentication-related configuration
type AuthConfig struct {
	JWTSecret     string        `json:"-"`
	TokenTTL      time.Duration `json:"token_ttl"`
	AdminName     string        `json:"admin_name"`
	AdminEmail    string        `json:"admin_email"`
	AdminPassword string        `json:"-"`
}

// UploadsConfig describes where category images live on disk
type UploadsConfig struct {
	Dir      string `json:"dir"`
	MaxBytes int64  `json:"max_bytes"`
}

// FeatureConfig contains feature-specific configuration
type FeatureConfig struct {
	Categories CategoriesConfig `json:"categories"`
	Metrics    MetricsConfig    `json:"metrics"`
}

// CategoriesConfig contains category management configuration
type CategoriesConfig struct {
	Enabled     bool `json:"enabled"`
	SeedSamples bool `json:"seed_samples"`
}

// MetricsConfig contains Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}

// DefaultMaxUploadBytes is the largest accepted category image (5 MiB)
const DefaultMaxUploadBytes = 5 << 20

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("BACKOFFICE_PORT", 5000),
			Host:           getEnvOrDefault("BACKOFFICE_HOST", "0.0.0.0"),
			AllowedOrigins: getEnvAsList("BACKOFFICE_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("BACKOFFICE_DB_PATH", "./backoffice.db"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnvOrDefault("BACKOFFICE_JWT_SECRET", ""),
			TokenTTL:      time.Duration(getEnvAsInt("BACKOFFICE_TOKEN_TTL_HOURS", 24)) * time.Hour,
			AdminName:     getEnvOrDefault("BACKOFFICE_ADMIN_NAME", "Administrator"),
			AdminEmail:    getEnvOrDefault("BACKOFFICE_ADMIN_EMAIL", ""),
			AdminPassword: getEnvOrDefault("BACKOFFICE_ADMIN_PASSWORD", ""),
		},
		Uploads: UploadsConfig{
			Dir:      getEnvOrDefault("BACKOFFICE_UPLOAD_DIR", "./uploads"),
			MaxBytes: int64(getEnvAsInt("BACKOFFICE_MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
		},
		Features: FeatureConfig{
			Categories: CategoriesConfig{
				Enabled:     getEnvAsBool("BACKOFFICE_ENABLE_CATEGORIES", true),
				SeedSamples: getEnvAsBool("BACKOFFICE_SEED_SAMPLE_CATEGORIES", true),
			},
			Metrics: MetricsConfig{
				Enabled: getEnvAsBool("BACKOFFICE_ENABLE_METRICS", true),
			},
		},
		LogLevel: getEnvOrDefault("BACKOFFICE_LOG_LEVEL", "info"),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate reports the first invalid setting as a CONFIGURATION_ERROR
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return NewConfigurationError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	if c.Database.Path == "" {
		return NewConfigurationError("database path is required", nil)
	}

	if c.Auth.JWTSecret == "" {
		return NewConfigurationError("JWT secret is required", nil)
	}

	if c.Auth.TokenTTL <= 0 {
		return NewConfigurationError("token TTL must be positive", nil)
	}

	// An admin account is only seeded when both halves are present
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return NewConfigurationError("admin email and admin password must be set together", nil)
	}

	if c.Uploads.Dir == "" {
		return NewConfigurationError("upload directory is required", nil)
	}

	if c.Uploads.MaxBytes <= 0 {
		return NewConfigurationError(fmt.Sprintf("invalid max upload size: %d", c.Uploads.MaxBytes), nil)
	}

	return nil
}

// IsFeatureEnabled checks if a feature is enabled
func (c *Config) IsFeatureEnabled(featureName string) bool {
	switch strings.ToLower(featureName) {
	case "categories":
		return c.Features.Categories.Enabled
	case "metrics":
		return c.Features.Metrics.Enabled
	default:
		return false
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
