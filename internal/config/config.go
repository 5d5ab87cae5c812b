// Package config loads service configuration from an optional YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"

	"github.com/collabsuite/marketplace_layer/pkg/logger"
)

// Config is the full runtime configuration.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR"`
	} `yaml:"http"`

	Database struct {
		// DSN selects the PostgreSQL store; when empty the in-memory store
		// is used.
		DSN string `yaml:"dsn" env:"DATABASE_DSN"`
	} `yaml:"database"`

	Logging logger.LoggingConfig `yaml:"logging"`

	Migration struct {
		// Schedule, when set, re-runs the pipeline on this cron expression.
		Schedule        string `yaml:"schedule" env:"MIGRATION_SCHEDULE"`
		PageSize        int    `yaml:"page_size" env:"MIGRATION_PAGE_SIZE"`
		Replace         *bool  `yaml:"replace"`
		ContinueOnError bool   `yaml:"continue_on_error" env:"MIGRATION_CONTINUE_ON_ERROR"`
	} `yaml:"migration"`

	Registrar struct {
		Endpoint string `yaml:"endpoint" env:"REGISTRAR_ENDPOINT"`
		APIKey   string `yaml:"api_key" env:"REGISTRAR_API_KEY"`
	} `yaml:"registrar"`
}

// Load reads the YAML file at path (skipped when path is empty or the file is
// absent) and applies environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// config file is optional
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if cfg.HTTP.Addr == "" {
		return nil, errors.New("http addr is required")
	}
	if cfg.Migration.PageSize < 0 {
		return nil, fmt.Errorf("migration page_size must not be negative, got %d", cfg.Migration.PageSize)
	}
	return cfg, nil
}
