package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"solarharvest/internal/models"

	"github.com/sethvargo/go-envconfig"
)

// DateLayout is the layout used for START_DATE and END_DATE
const DateLayout = "2006-01-02"

// Config holds all configuration for the imagery harvester.
// It is loaded once at startup and treated as read-only afterwards.
type Config struct {
	// Input table
	InputFile       string `env:"INPUT_FILE,default=gec.csv"`
	ObservationHour int    `env:"OBSERVATION_HOUR,default=12"`
	StartDate       string `env:"START_DATE,default=2014-01-01"`
	EndDate         string `env:"END_DATE,default=2024-12-31"`

	// Helioviewer API
	HelioviewerBaseURL string        `env:"HELIOVIEWER_BASE_URL,default=https://api.helioviewer.org"`
	ImageScale         int           `env:"IMAGE_SCALE,default=16"`
	LookupTimeout      time.Duration `env:"LOOKUP_TIMEOUT,default=30s"`
	DownloadTimeout    time.Duration `env:"DOWNLOAD_TIMEOUT,default=20s"`
	ValidateImages     bool          `env:"VALIDATE_IMAGES,default=true"`
	RateLimit          float64       `env:"HELIOVIEWER_RATE_LIMIT,default=0"`

	// Worker pool
	Workers int `env:"WORKERS,default=32"`

	// Output storage
	StorageMode string `env:"STORAGE_MODE,default=local"`
	OutputDir   string `env:"OUTPUT_DIR,default=data/raw_images"`
	GCSBucket   string `env:"GCS_BUCKET"`
	GCSPrefix   string `env:"GCS_PREFIX"`
	BlobURL     string `env:"BLOB_URL"`

	// Failure manifest, empty disables it
	FailureManifest string `env:"FAILURE_MANIFEST,default=data/failures.json"`

	// Progress display
	Progress         bool          `env:"PROGRESS,default=true"`
	ProgressInterval time.Duration `env:"PROGRESS_INTERVAL,default=2s"`

	// Service configuration
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	LogFormat   string `env:"LOG_FORMAT,default=text"`

	// Channels is fixed and not read from the environment
	Channels []models.Channel
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	cfg.Channels = models.DefaultChannels()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and storage mode requirements
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return errors.New("config: INPUT_FILE is required")
	}
	if c.ObservationHour < 0 || c.ObservationHour > 23 {
		return fmt.Errorf("config: OBSERVATION_HOUR must be between 0 and 23, got %d", c.ObservationHour)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: WORKERS must be positive, got %d", c.Workers)
	}
	if c.ImageScale <= 0 {
		return fmt.Errorf("config: IMAGE_SCALE must be positive, got %d", c.ImageScale)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: HELIOVIEWER_RATE_LIMIT must not be negative, got %v", c.RateLimit)
	}
	if c.LookupTimeout <= 0 || c.DownloadTimeout <= 0 {
		return errors.New("config: LOOKUP_TIMEOUT and DOWNLOAD_TIMEOUT must be positive")
	}

	start, end, err := c.DateRange()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("config: END_DATE %s is before START_DATE %s", c.EndDate, c.StartDate)
	}

	switch strings.ToLower(c.StorageMode) {
	case "local":
		if c.OutputDir == "" {
			return errors.New("config: OUTPUT_DIR is required for local storage")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return errors.New("config: GCS_BUCKET is required for gcs storage")
		}
	case "blob":
		if c.BlobURL == "" {
			return errors.New("config: BLOB_URL is required for blob storage")
		}
	default:
		return fmt.Errorf("config: unsupported STORAGE_MODE %q", c.StorageMode)
	}

	return nil
}

// DateRange parses StartDate and EndDate as UTC calendar dates
func (c *Config) DateRange() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout, c.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: invalid START_DATE %q: %w", c.StartDate, err)
	}
	end, err := time.ParseInLocation(DateLayout, c.EndDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: invalid END_DATE %q: %w", c.EndDate, err)
	}
	return start, end, nil
}
