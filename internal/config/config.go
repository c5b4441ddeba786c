// Package config loads application configuration from a YAML file
// with environment variable overrides and sensible defaults. The file
// is optional: a missing path yields the defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Content struct {
		// TablesPath overrides the embedded region/crop tables.
		TablesPath string `yaml:"tables_path"`
	} `yaml:"content"`
	Sync struct {
		ServerURL   string `yaml:"server_url"`
		MaxAttempts int    `yaml:"max_attempts"`
		// Disabled turns the background drainer off entirely;
		// actions still accumulate in the durable log.
		Disabled bool `yaml:"disabled"`
	} `yaml:"sync"`
	Sim struct {
		Region string `yaml:"region"`
		Seed   int64  `yaml:"seed"` // 0 means derive from wall time
	} `yaml:"sim"`
	Log struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SAATHI_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SAATHI_TABLES_PATH"); v != "" {
		cfg.Content.TablesPath = v
	}
	if v := os.Getenv("SAATHI_SYNC_URL"); v != "" {
		cfg.Sync.ServerURL = v
	}
	if v := os.Getenv("SAATHI_SYNC_DISABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Sync.Disabled = b
		}
	}
	if v := os.Getenv("SAATHI_REGION"); v != "" {
		cfg.Sim.Region = v
	}
	if v := os.Getenv("SAATHI_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sim.Seed = seed
		}
	}
	if v := os.Getenv("SAATHI_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/saathi.db"
	}
	if cfg.Sync.MaxAttempts == 0 {
		cfg.Sync.MaxAttempts = 8
	}
	if cfg.Sim.Region == "" {
		cfg.Sim.Region = "national"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	return cfg, nil
}

// Validate checks field sanity beyond what defaults guarantee.
func (c *Config) Validate() error {
	if c.Sync.MaxAttempts < 1 {
		return fmt.Errorf("sync.max_attempts must be at least 1")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not text or json", c.Log.Format)
	}
	return nil
}
