// Package config loads the server configuration from an optional YAML file and CHRONOS_
// environment variables. Environment variables take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. CHRONOS_SERVER_ADDR
	EnvPrefix = "CHRONOS"

	// FileEnv names the environment variable holding the YAML config path
	FileEnv = "CHRONOS_CONFIG"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Forecast  ForecastConfig  `yaml:"forecast" envconfig:"FORECAST"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console"`
}

// ForecastConfig holds the forecaster defaults exposed to users
type ForecastConfig struct {
	DefaultHorizon int     `yaml:"default_horizon" envconfig:"DEFAULT_HORIZON" validate:"gtefield=MinHorizon,ltefield=MaxHorizon"`
	MinHorizon     int     `yaml:"min_horizon" envconfig:"MIN_HORIZON" validate:"gte=7,lte=90"`
	MaxHorizon     int     `yaml:"max_horizon" envconfig:"MAX_HORIZON" validate:"gte=7,lte=90,gtefield=MinHorizon"`
	HistoryWindow  int     `yaml:"history_window" envconfig:"HISTORY_WINDOW" validate:"gte=1"`
	Confidence     float64 `yaml:"confidence" envconfig:"CONFIDENCE" validate:"gt=0,lt=1"`
	HolidayCountry string  `yaml:"holiday_country" envconfig:"HOLIDAY_COUNTRY" validate:"omitempty,oneof=br us BR US"`
}

// RateLimitConfig contains per client rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=1"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  10 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Forecast: ForecastConfig{
			DefaultHorizon: 30,
			MinHorizon:     7,
			MaxHorizon:     90,
			HistoryWindow:  90,
			Confidence:     0.95,
			HolidayCountry: "br",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     2,
			Burst:   5,
		},
	}
}

// Load builds the configuration from the defaults, the YAML file named by CHRONOS_CONFIG when set
// and finally the environment.
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("unable to load config from env, %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read config file %s, %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("unable to parse config file %s, %w", path, err)
	}
	return nil
}

// Validate checks value ranges of every section
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w, %w", ErrInvalidConfig, err)
	}
	return nil
}
