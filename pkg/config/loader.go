package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "skosgraph.yaml"
	// EnvPrefix prefixes every environment override
	EnvPrefix = "SKOSGRAPH_"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	lookup func(string) (string, bool)
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, lookup: os.LookupEnv}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. Config file (path, or skosgraph.yaml in current or parent directories)
// 3. SKOSGRAPH_* environment variables
// Command-line flags are applied by the caller on top of the result.
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		path = l.findProjectConfig()
	}
	if path != "" {
		if err := config.mergeFile(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			l.logger.Debug("Config file not found", slog.String("path", path))
		} else {
			l.logger.Debug("Loaded config", slog.String("path", path))
		}
	}

	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv overrides config values from SKOSGRAPH_* variables.
func (l *Loader) applyEnv(config *Config) {
	values := map[string]*string{
		"GRAPH_PATH":                &config.Graph.Path,
		"DATABASE_PATH":             &config.Database.Path,
		"VOCABULARY_LANG":           &config.Vocabulary.Lang,
		"VOCABULARY_DIR":            &config.Vocabulary.Dir,
		"VOCABULARY_NORMALIZE_URIS": &config.Vocabulary.NormalizeURIs,
		"LOG_LEVEL":                 &config.Log.Level,
		"METRICS_ADDR":              &config.Metrics.Addr,
	}
	for name, target := range values {
		if value, ok := l.lookup(EnvPrefix + name); ok {
			*target = value
			l.logger.Debug("Config overridden from environment", slog.String("var", EnvPrefix+name))
		}
	}
}

// findProjectConfig searches for skosgraph.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
