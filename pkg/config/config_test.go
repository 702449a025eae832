package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader(env map[string]string) *Loader {
	l := NewLoader(nil)
	l.lookup = func(name string) (string, bool) {
		value, ok := env[name]
		return value, ok
	}
	return l
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "skosgraph.nt", cfg.Graph.Path)
	assert.Equal(t, "skosgraph.db", cfg.Database.Path)
	assert.Equal(t, "en", cfg.Vocabulary.Lang)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid default config", modify: func(c *Config) {}},
		{name: "missing graph path", modify: func(c *Config) { c.Graph.Path = "" }, wantErr: true},
		{name: "missing database path", modify: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "missing language", modify: func(c *Config) { c.Vocabulary.Lang = "" }, wantErr: true},
		{name: "unknown normalisation", modify: func(c *Config) { c.Vocabulary.NormalizeURIs = "upper" }, wantErr: true},
		{name: "bad log level", modify: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "debug level", modify: func(c *Config) { c.Log.Level = "debug" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skosgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vocabulary:\n  lang: de\nmetrics:\n  addr: \":9464\"\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.Vocabulary.Lang)
	assert.Equal(t, "vocabularies", cfg.Vocabulary.Dir)
	assert.Equal(t, ":9464", cfg.Metrics.Addr)
	assert.Equal(t, "skosgraph.db", cfg.Database.Path)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vocabulary: [unclosed"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "skosgraph.yaml")
	cfg := DefaultConfig()
	cfg.Metrics.Addr = ":9464"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoader_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skosgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vocabulary:\n  lang: de\n  dir: terms\nlog:\n  level: warn\n"), 0644))

	l := testLoader(map[string]string{
		"SKOSGRAPH_VOCABULARY_LANG": "fr",
		"SKOSGRAPH_DATABASE_PATH":   "/var/lib/skosgraph/mirror.db",
	})
	cfg, err := l.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fr", cfg.Vocabulary.Lang)
	assert.Equal(t, "terms", cfg.Vocabulary.Dir)
	assert.Equal(t, "/var/lib/skosgraph/mirror.db", cfg.Database.Path)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := testLoader(nil).Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_InvalidEnv(t *testing.T) {
	_, err := testLoader(map[string]string{"SKOSGRAPH_VOCABULARY_NORMALIZE_URIS": "upper"}).Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = testLoader(map[string]string{"SKOSGRAPH_LOG_LEVEL": "chatty"}).Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNormalizer(t *testing.T) {
	assert.Nil(t, VocabularyConfig{NormalizeURIs: NormalizeNone}.Normalizer())

	normalize := VocabularyConfig{NormalizeURIs: NormalizeTrimSlash}.Normalizer()
	require.NotNil(t, normalize)
	assert.Equal(t, "http://example.org/dog", normalize(" http://example.org/dog/ "))
	assert.Equal(t, "http://example.org/dog", normalize("http://example.org/dog"))
}
