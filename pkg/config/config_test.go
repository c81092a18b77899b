package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glorpus-work/instill/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.True(t, filepath.IsAbs(cfg.Settings.DownloadDir))
	assert.True(t, filepath.IsAbs(cfg.Settings.StatePath))
	assert.Equal(t, DefaultHTTPTimeout, cfg.Settings.HTTPTimeout)
	assert.Equal(t, DefaultUserAgent, cfg.Settings.UserAgent)
	assert.False(t, cfg.Settings.RequireCodeSigning)
}

func TestLoad_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
settings:
  catalog_path: /etc/instill/catalog.json
  download_dir: /var/cache/instill
  state_path: /var/lib/instill/state.json
  http_timeout: 10s
  require_code_signing: true
  log_level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/instill/catalog.json", cfg.Settings.CatalogPath)
	assert.Equal(t, "/var/cache/instill", cfg.Settings.DownloadDir)
	assert.Equal(t, 10*time.Second, cfg.Settings.HTTPTimeout)
	assert.True(t, cfg.Settings.RequireCodeSigning)
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, DefaultUserAgent, cfg.Settings.UserAgent, "unset fields keep their defaults")
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "ghost.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigValidation)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("settings: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigParse)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty download dir", func(c *Config) { c.Settings.DownloadDir = "" }},
		{"relative download dir", func(c *Config) { c.Settings.DownloadDir = "relative/dir" }},
		{"empty state path", func(c *Config) { c.Settings.StatePath = "" }},
		{"non-positive timeout", func(c *Config) { c.Settings.HTTPTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrConfigValidation)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Settings.CatalogPath = "/tmp/catalog.json"

	require.NoError(t, cfg.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Settings.CatalogPath, got.Settings.CatalogPath)
	assert.Equal(t, cfg.Settings.DownloadDir, got.Settings.DownloadDir)
}
