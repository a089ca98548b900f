// Package config provides configuration management for nodegraph tools.
//
// Config file locations (priority order):
//  1. $NODEGRAPH_CONFIG
//  2. ./nodegraph.yaml
//  3. $XDG_CONFIG_HOME/nodegraph/config.yaml
//  4. ~/.config/nodegraph/config.yaml
//  5. /etc/nodegraph/config.yaml
//
// NODEGRAPH_* environment variables override file values (see EnvOverrides).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHistoryCapacity = 100
	DefaultDatabasePath    = "./nodegraph.db"
	DefaultWatchDebounce   = 250 * time.Millisecond

	SelectionOverlap = "overlap"
	SelectionInclude = "include"

	CompressionNone = "none"
	CompressionZstd = "zstd"
)

var validate = validator.New()

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.finish(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.finish(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

func (c *Config) finish() error {
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return fmt.Errorf("environment override: %w", err)
	}
	return c.Validate()
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:   1,
		History:   HistoryConfig{Capacity: DefaultHistoryCapacity},
		Selection: SelectionConfig{Mode: SelectionOverlap},
		Document:  DocumentConfig{Format: "xml", Compression: CompressionNone},
		Database:  DatabaseConfig{Path: DefaultDatabasePath},
		Log:       LogConfig{Level: LogInfo, Format: LogText},
		Watch:     WatchConfig{Debounce: Duration(DefaultWatchDebounce)},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Version == 0 {
		c.Version = d.Version
	}
	if c.History.Capacity == 0 {
		c.History.Capacity = d.History.Capacity
	}
	if c.Selection.Mode == "" {
		c.Selection.Mode = d.Selection.Mode
	}
	if c.Document.Format == "" {
		c.Document.Format = d.Document.Format
	}
	if c.Document.Compression == "" {
		c.Document.Compression = d.Document.Compression
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = d.Watch.Debounce
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	return fmt.Sprintf("History: %d, Selection: %s, Document: %s (%s)\nDatabase: %s, Log: %s/%s, Debounce: %s",
		c.History.Capacity, c.Selection.Mode, c.Document.Format, c.Document.Compression,
		c.Database.Path, c.Log.Level, c.Log.Format, c.Watch.Debounce.Duration())
}
