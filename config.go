package taskstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// Config holds the recognized store options, read from config.yaml in the
// store directory. Neither option participates in the consistency contract;
// both drive the optional background exporter.
type Config struct {
	// DebounceMS is the exporter's quiet period in milliseconds after the
	// last write before it reconciles. 0 disables the exporter.
	DebounceMS int `yaml:"debounce_ms"`

	// AutoExport starts the exporter when the store is opened.
	AutoExport bool `yaml:"auto_export"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{DebounceMS: 5000, AutoExport: false}
}

// loadConfig reads config.yaml from dir, applying defaults for absent keys.
// A missing file yields the defaults. An explicit debounce_ms of 0 disables
// the exporter, so absent and zero must be distinguished.
func loadConfig(dir string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, newError(ErrCodeIO, "", "", "read config", err)
	}

	var raw struct {
		DebounceMS *int  `yaml:"debounce_ms"`
		AutoExport *bool `yaml:"auto_export"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, newError(ErrCodeIO, "", "", fmt.Sprintf("parse %s", configFileName), err)
	}
	if raw.DebounceMS != nil {
		cfg.DebounceMS = *raw.DebounceMS
	}
	if raw.AutoExport != nil {
		cfg.AutoExport = *raw.AutoExport
	}
	return cfg, nil
}

// Option customizes Open.
type Option func(*openOptions)

type openOptions struct {
	config *Config
}

// WithConfig overrides the configuration file for this Store instance.
func WithConfig(cfg Config) Option {
	return func(o *openOptions) { o.config = &cfg }
}
