// Package config loads the editor configuration from a TOML file over
// compiled-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/inkpad/internal/engine/history"
	"github.com/dshills/inkpad/internal/identity"
)

// Errors returned by configuration operations.
var (
	// ErrValidationFailed indicates a setting holds an unusable value.
	ErrValidationFailed = errors.New("validation failed")
)

const defaultGroupTimeoutMS = 500

// History carries the undo history tuning knobs.
type History struct {
	// HotCapacity bounds the sealed undo groups held in memory per
	// document.
	HotCapacity int `toml:"hot_capacity"`

	// MaxDepth bounds the total undo groups per document across memory
	// and disk.
	MaxDepth int `toml:"max_history_depth"`

	// GroupTimeoutMS is the keystroke-merge window in milliseconds.
	GroupTimeoutMS int64 `toml:"group_timeout_ms"`
}

// Config is the editor configuration.
type Config struct {
	// DataDir overrides where persistent state lives. Empty means the
	// resolved default (environment override or executable-adjacent).
	DataDir string `toml:"data_dir"`

	History History `toml:"history"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		History: History{
			HotCapacity:    history.DefaultHotCapacity,
			MaxDepth:       history.DefaultMaxDepth,
			GroupTimeoutMS: defaultGroupTimeoutMS,
		},
	}
}

// Load reads the TOML file at path over the defaults and validates the
// result. A missing file is not an error; the defaults apply. Unknown
// keys are rejected so typos fail loudly instead of silently using a
// default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Default(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the tuning values are usable.
func (c Config) Validate() error {
	if c.History.HotCapacity <= 0 {
		return fmt.Errorf("%w: hot_capacity must be positive, got %d", ErrValidationFailed, c.History.HotCapacity)
	}
	if c.History.MaxDepth <= 0 {
		return fmt.Errorf("%w: max_history_depth must be positive, got %d", ErrValidationFailed, c.History.MaxDepth)
	}
	if c.History.MaxDepth < c.History.HotCapacity {
		return fmt.Errorf("%w: max_history_depth %d is below hot_capacity %d", ErrValidationFailed, c.History.MaxDepth, c.History.HotCapacity)
	}
	if c.History.GroupTimeoutMS < 0 {
		return fmt.Errorf("%w: group_timeout_ms must not be negative, got %d", ErrValidationFailed, c.History.GroupTimeoutMS)
	}
	return nil
}

// ResolvedDataDir returns the configured data directory, falling back to
// the environment override or the executable-adjacent default.
func (c Config) ResolvedDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return identity.ResolveDataDir()
}

// HistoryConfig converts the tuning knobs into the engine's type.
func (c Config) HistoryConfig() history.Config {
	return history.Config{
		HotCapacity:  c.History.HotCapacity,
		MaxDepth:     c.History.MaxDepth,
		GroupTimeout: time.Duration(c.History.GroupTimeoutMS) * time.Millisecond,
		Policy:       history.DefaultGroupPolicy(),
	}
}
