package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file at the root of a ledger repo.
const FileName = "cashbook.yaml"

// Config represents the top-level cashbook.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Store    StoreConfig    `yaml:"store"`
	Rates    RatesConfig    `yaml:"rates"`
	Confirm  ConfirmConfig  `yaml:"confirm"`
	Git      GitConfig      `yaml:"git"`
	Log      LogConfig      `yaml:"log"`
}

// BusinessConfig identifies the business keeping the ledger.
type BusinessConfig struct {
	Name           string `yaml:"name"`
	DefaultHandler string `yaml:"default_handler,omitempty"`
}

// StoreConfig selects where the ledger table lives.
type StoreConfig struct {
	Driver string `yaml:"driver"` // csv, xlsx or sqlite
	Path   string `yaml:"path"`   // relative to the repo root
	Sheet  string `yaml:"sheet,omitempty"`
}

// RatesConfig controls the exchange-rate feed.
type RatesConfig struct {
	URL      string             `yaml:"url"`
	Refresh  time.Duration      `yaml:"refresh"`
	Timeout  time.Duration      `yaml:"timeout"`
	Defaults map[string]float64 `yaml:"defaults,omitempty"`
}

// ConfirmConfig controls the post-write visibility check.
type ConfirmConfig struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// Load reads a cashbook.yaml file from disk. Settings missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name: businessName,
		},
		Store: StoreConfig{
			Driver: "csv",
			Path:   "ledger/ledger.csv",
		},
		Rates: RatesConfig{
			Refresh: time.Hour,
			Timeout: 5 * time.Second,
		},
		Confirm: ConfirmConfig{
			Attempts: 5,
			Interval: 500 * time.Millisecond,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Cashbook",
			AuthorEmail: "cashbook@localhost",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate rejects settings no component can honour.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "csv", "xlsx", "sqlite":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("config: store path is required")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Confirm.Attempts < 0 {
		return fmt.Errorf("config: confirm attempts must not be negative")
	}
	for code, r := range c.Rates.Defaults {
		if r <= 0 {
			return fmt.Errorf("config: default rate for %s must be positive", code)
		}
	}
	return nil
}
