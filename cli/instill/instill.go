package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/glorpus-work/instill/internal/cli"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	catalogPath string
	logLevel    string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instill",
		Short: "An application-installation orchestrator",
		Long: `instill installs vetted applications from a static catalog:
- resolves install-order dependencies, detecting cycles and missing entries
- downloads installer payloads into a hash-checked cache
- verifies integrity and authenticity before anything executes
- records durable installation state across runs`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog file path")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	cli.ConfigPath = &configPath
	cli.CatalogPath = &catalogPath
	cli.LogLevel = &logLevel

	cmd.AddCommand(
		cli.NewListCmd(),
		cli.NewPlanCmd(),
		cli.NewDownloadCmd(),
		cli.NewInstallCmd(),
		cli.NewUninstallCmd(),
		cli.NewStatusCmd(),
	)
	return cmd
}
