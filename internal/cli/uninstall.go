package cli

import (
	"github.com/spf13/cobra"
)

// NewUninstallCmd creates the uninstall command.
func NewUninstallCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "uninstall APP_ID...",
		Short: "Uninstall applications",
		Long: `Uninstall one or more installed applications.
An uninstall is refused while other installed applications still depend on
the target; uninstall the dependents first.`,
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
				if err := mgr.Uninstall(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Synthesize uninstall commands without executing them")
	return cmd
}
