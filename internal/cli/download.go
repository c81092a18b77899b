package cli

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewDownloadCmd creates the download command, which fetches and verifies a
// payload without executing it.
func NewDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download APP_ID...",
		Short: "Download and verify installer payloads without installing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := rootLogger(cfg)
			mgr, err := buildManager(cfg, log, true)
			if err != nil {
				return err
			}

			for _, id := range args {
				path, cacheHit, err := mgr.Download(cmd.Context(), id)
				if err != nil {
					return err
				}
				if cacheHit {
					pterm.Success.Printfln("%s: cached payload verified at %s", id, path)
				} else {
					pterm.Success.Printfln("%s: downloaded and verified at %s", id, path)
				}
			}
			return nil
		},
	}
}
