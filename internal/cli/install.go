package cli

import (
	"github.com/spf13/cobra"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "install APP_ID...",
		Short: "Install applications",
		Long: `Install one or more applications from the catalog.
Dependencies are installed first; an app already installed at the catalog
version is skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := rootLogger(cfg)
			mgr, err := buildManager(cfg, log, dryRun)
			if err != nil {
				return err
			}

			for _, id := range args {
				if err := mgr.Install(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Synthesize installer commands without executing them")
	return cmd
}
