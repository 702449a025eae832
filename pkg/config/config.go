// Package config provides configuration loading and management for
// skosgraph.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// URI normalisation modes.
const (
	NormalizeNone      = "none"
	NormalizeTrimSlash = "trim-slash"
)

// Config represents the complete skosgraph configuration
type Config struct {
	Graph      GraphConfig      `yaml:"graph"`
	Database   DatabaseConfig   `yaml:"database"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// GraphConfig configures the triple store snapshot
type GraphConfig struct {
	// Path is the N-Triples file the graph is loaded from and saved to
	Path string `yaml:"path"`
}

// DatabaseConfig configures the relational mirror
type DatabaseConfig struct {
	// Path is the SQLite database file (":memory:" for no persistence)
	Path string `yaml:"path"`
}

// VocabularyConfig configures how vocabularies are read
type VocabularyConfig struct {
	// Lang is the preferred label language
	Lang string `yaml:"lang"`
	// Dir is the directory of *.nt files watched by `skosgraph watch`
	Dir string `yaml:"dir"`
	// NormalizeURIs selects how imported IRIs are normalised
	NormalizeURIs string `yaml:"normalize_uris"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// MetricsConfig configures the metrics endpoint
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled)
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			Path: "skosgraph.nt",
		},
		Database: DatabaseConfig{
			Path: "skosgraph.db",
		},
		Vocabulary: VocabularyConfig{
			Lang:          "en",
			Dir:           "vocabularies",
			NormalizeURIs: NormalizeNone,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Graph.Path == "" {
		return fmt.Errorf("graph.path is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Vocabulary.Lang == "" {
		return fmt.Errorf("vocabulary.lang is required")
	}
	switch c.Vocabulary.NormalizeURIs {
	case NormalizeNone, NormalizeTrimSlash:
	default:
		return fmt.Errorf("vocabulary.normalize_uris must be %q or %q", NormalizeNone, NormalizeTrimSlash)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses the configured log level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Normalizer returns the IRI normalisation function, or nil when IRIs are
// kept as written.
func (v VocabularyConfig) Normalizer() func(string) string {
	if v.NormalizeURIs != NormalizeTrimSlash {
		return nil
	}
	return func(uri string) string {
		trimmed := strings.TrimRight(strings.TrimSpace(uri), "/")
		if strings.HasSuffix(trimmed, ":") {
			return strings.TrimSpace(uri)
		}
		return trimmed
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.mergeFile(path); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeFile decodes the file over c, so keys absent from the file keep
// their current values.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
