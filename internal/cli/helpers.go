// Package cli implements the instill subcommands. Each command wires the
// catalog, planner, downloader, verifier, runner and state store into an
// orchestrator.Manager from the loaded configuration.
package cli

import (
	"fmt"
	"os"

	"github.com/glorpus-work/instill/internal/logging"
	"github.com/glorpus-work/instill/pkg/catalog"
	"github.com/glorpus-work/instill/pkg/config"
	"github.com/glorpus-work/instill/pkg/download"
	"github.com/glorpus-work/instill/pkg/orchestrator"
	"github.com/glorpus-work/instill/pkg/planner"
	"github.com/glorpus-work/instill/pkg/runner"
	"github.com/glorpus-work/instill/pkg/signing"
	"github.com/glorpus-work/instill/pkg/state"
	"github.com/glorpus-work/instill/pkg/verify"
	"github.com/rs/zerolog"
)

// Global flag values, set by the root command.
var (
	ConfigPath  *string
	CatalogPath *string
	LogLevel    *string
)

func loadConfig() (*config.Config, error) {
	path := config.DefaultConfigPath()
	if ConfigPath != nil && *ConfigPath != "" {
		path = *ConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if LogLevel != nil && *LogLevel != "" {
		cfg.Settings.LogLevel = *LogLevel
	}
	return cfg, nil
}

func rootLogger(cfg *config.Config) zerolog.Logger {
	return logging.Setup(os.Stderr, cfg.Settings.LogLevel)
}

func catalogPath(cfg *config.Config) (string, error) {
	if CatalogPath != nil && *CatalogPath != "" {
		return *CatalogPath, nil
	}
	if cfg.Settings.CatalogPath != "" {
		return cfg.Settings.CatalogPath, nil
	}
	return "", fmt.Errorf("no catalog given: pass --catalog or set catalog_path in the config")
}

func loadCatalog(cfg *config.Config, log zerolog.Logger) (*catalog.Catalog, error) {
	path, err := catalogPath(cfg)
	if err != nil {
		return nil, err
	}
	return catalog.Load(path, logging.Component(log, "catalog"))
}

// buildManager wires a full orchestrator.Manager. dryRun forces the dry-run
// executor regardless of platform or config.
func buildManager(cfg *config.Config, log zerolog.Logger, dryRun bool) (*orchestrator.Manager, error) {
	cat, err := loadCatalog(cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := state.New(cfg.Settings.StatePath, logging.Component(log, "state"))
	if err != nil {
		return nil, err
	}

	dl, err := download.NewManager(download.Options{
		Dir:       cfg.Settings.DownloadDir,
		SourceDir: cfg.Settings.SourceDir,
		Timeout:   cfg.Settings.HTTPTimeout,
		UserAgent: cfg.Settings.UserAgent,
	}, logging.Component(log, "download"))
	if err != nil {
		return nil, err
	}

	// The platform code-signing capability is only consulted when the config
	// demands it; there is no platform provider wired in yet, so a verdict
	// request reports unsigned.
	var signer signing.Verifier
	if cfg.Settings.RequireCodeSigning {
		signer = signing.Unavailable{}
	}
	verifier := verify.New(verify.Options{
		RequireCodeSigning: cfg.Settings.RequireCodeSigning,
		Signer:             signer,
	}, logging.Component(log, "verify"))

	exec := runner.DefaultExecutor()
	if dryRun || cfg.Settings.DryRun {
		exec = runner.DryRunExecutor{}
	}
	run := runner.New(exec, logging.Component(log, "runner"))

	pln := planner.New(cat, store, logging.Component(log, "planner"))

	hooks := orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		if e.ID != "" && e.Msg != "" {
			fmt.Printf("%s: %s (%s)\n", e.Phase, e.ID, e.Msg)
		} else if e.ID != "" {
			fmt.Printf("%s: %s\n", e.Phase, e.ID)
		}
	}}

	return orchestrator.New(cat, pln, dl, verifier, run, store, hooks, logging.Component(log, "orchestrator")), nil
}
