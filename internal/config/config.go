// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and GANALYTICS_* environment variables on top.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/ganalytics/pkg/ganalytics"
	"github.com/okian/ganalytics/pkg/ganalytics/naming"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the metrics listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// DefaultConvention names the naming convention used when neither a
	// method nor its interface declares one, e.g. "lower_snake".
	DefaultConvention string `koanf:"default_convention"`

	// CutOffPrefix strips a leading "analytics" from interface names.
	CutOffPrefix bool `koanf:"cut_off_prefix"`

	// PrefixSplitter joins a prefix and an action.
	PrefixSplitter string `koanf:"prefix_splitter"`

	// UseTypeConvertersForSubType enables hierarchy lookup of label converters.
	UseTypeConvertersForSubType bool `koanf:"use_type_converters_for_sub_type"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of delivery workers.
	WorkerCount int `koanf:"worker_count"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9090",
		DefaultConvention: "lower",
		PrefixSplitter:    ganalytics.DefaultPrefixSplitter,
		EventQueueSize:    10_000,
		WorkerCount:       runtime.NumCPU(),
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.EventQueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.EventQueueSize)
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("%w: worker_count must not be negative, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if _, err := naming.Lookup(c.DefaultConvention); err != nil {
		return fmt.Errorf("%w: default_convention: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Settings maps the wrapper-related keys to ganalytics.Settings.
func (c *Config) Settings() (ganalytics.Settings, error) {
	convention, err := naming.Lookup(c.DefaultConvention)
	if err != nil {
		return ganalytics.Settings{}, fmt.Errorf("%w: default_convention: %w", ErrInvalidConfig, err)
	}
	s := ganalytics.DefaultSettings()
	s.DefaultConvention = convention
	s.CutOffPrefix = c.CutOffPrefix
	s.PrefixSplitter = c.PrefixSplitter
	s.UseTypeConvertersForSubType = c.UseTypeConvertersForSubType
	return s, nil
}
