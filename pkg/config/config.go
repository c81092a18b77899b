// Package config provides configuration management for the installer. It
// loads YAML settings, applies defaults resolved through the XDG base
// directories, and validates the result before any component is wired.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/glorpus-work/instill/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// CatalogPath is the default catalog file, overridable per command.
	CatalogPath string `yaml:"catalog_path,omitempty"`

	// DownloadDir is the shared installer payload cache.
	DownloadDir string `yaml:"download_dir,omitempty"`

	// SourceDir is the root that relative file URIs resolve against.
	SourceDir string `yaml:"source_dir,omitempty"`

	// StatePath is the durable installation state file.
	StatePath string `yaml:"state_path,omitempty"`

	// HTTPTimeout is the fixed deadline for one payload fetch.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// UserAgent is sent on HTTP fetches.
	UserAgent string `yaml:"user_agent,omitempty"`

	// RequireCodeSigning makes an unsigned code-signing verdict fatal.
	RequireCodeSigning bool `yaml:"require_code_signing"`

	// DryRun synthesizes installer commands without executing them.
	DryRun bool `yaml:"dry_run"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default deadline for HTTP fetches.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultUserAgent identifies the client on HTTP fetches.
	DefaultUserAgent = "instill/1.0"

	appDirName = "instill"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			DownloadDir: filepath.Join(xdg.CacheHome, appDirName, "downloads"),
			StatePath:   filepath.Join(xdg.StateHome, appDirName, "state.json"),
			HTTPTimeout: DefaultHTTPTimeout,
			UserAgent:   DefaultUserAgent,
			LogLevel:    "warn",
		},
	}
}

// DefaultConfigPath returns the standard location of the config file.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appDirName, "config.yaml")
}

// Load reads a config file, fills unset fields from defaults and validates
// the result. A missing file at the default path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if path == DefaultConfigPath() {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config file %s does not exist: %w", path, errors.ErrConfigValidation)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfigParse, "failed to read %s: %v", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(errors.ErrConfigParse, "%s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Settings.DownloadDir == "" {
		return errors.Wrap(errors.ErrConfigValidation, "download_dir cannot be empty")
	}
	if !filepath.IsAbs(c.Settings.DownloadDir) {
		return errors.Wrapf(errors.ErrConfigValidation, "download_dir must be absolute: %s", c.Settings.DownloadDir)
	}
	if c.Settings.StatePath == "" {
		return errors.Wrap(errors.ErrConfigValidation, "state_path cannot be empty")
	}
	if c.Settings.HTTPTimeout <= 0 {
		return errors.Wrap(errors.ErrConfigValidation, "http_timeout must be positive")
	}
	return nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
