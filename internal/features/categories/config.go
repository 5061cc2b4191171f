package categories

import (
	"backoffice/internal/core"
)

// Config represents category feature configuration
type Config struct {
	Enabled        bool
	SeedSamples    bool
	UploadDir      string
	MaxUploadBytes int64
}

// NewConfig creates category config from core config
func NewConfig(coreConfig *core.Config) *Config {
	return &Config{
		Enabled:        coreConfig.Features.Categories.Enabled,
		SeedSamples:    coreConfig.Features.Categories.SeedSamples,
		UploadDir:      coreConfig.Uploads.Dir,
		MaxUploadBytes: coreConfig.Uploads.MaxBytes,
	}
}

// Validate validates the category configuration
func (c *Config) Validate() error {
	if c.UploadDir == "" {
		return core.NewConfigurationError("upload directory is required", nil)
	}

	if c.MaxUploadBytes <= 0 {
		return core.NewConfigurationError("max upload size must be positive", nil)
	}

	return nil
}
