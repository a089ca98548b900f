package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version" validate:"gte=1"`
	History   HistoryConfig   `yaml:"history"`
	Selection SelectionConfig `yaml:"selection"`
	Document  DocumentConfig  `yaml:"document"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Watch     WatchConfig     `yaml:"watch"`
}

// HistoryConfig sizes the undo log
type HistoryConfig struct {
	Capacity int `yaml:"capacity" validate:"gte=1,lte=100000"`
}

// SelectionConfig holds rubber band settings
type SelectionConfig struct {
	Mode string `yaml:"mode" validate:"oneof=overlap include"`
}

// DocumentConfig picks the on-disk document encoding
type DocumentConfig struct {
	Format      string `yaml:"format" validate:"oneof=xml yaml json binary"`
	Compression string `yaml:"compression" validate:"oneof=none zstd"`
}

// Compressed reports whether zstd compression is enabled
func (d DocumentConfig) Compressed() bool {
	return d.Compression == CompressionZstd
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// LogConfig configures the slog handler
type LogConfig struct {
	Level  LogLevel  `yaml:"level" validate:"oneof=debug info warn error"`
	Format LogFormat `yaml:"format" validate:"oneof=text json"`
}

// WatchConfig controls document hot-reload
type WatchConfig struct {
	Debounce Duration `yaml:"debounce" validate:"gte=0"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the value as a time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
