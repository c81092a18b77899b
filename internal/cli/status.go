package cli

import (
	"fmt"

	"github.com/glorpus-work/instill/pkg/model"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [APP_ID]",
		Short: "Show installation state for one or all applications",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := rootLogger(cfg)
			mgr, err := buildManager(cfg, log, true)
			if err != nil {
				return err
			}

			var records []*model.AppStatus
			if len(args) == 1 {
				rec := mgr.Status(args[0])
				if rec == nil {
					return fmt.Errorf("no installation record for %q", args[0])
				}
				records = append(records, rec)
			} else {
				records = mgr.StatusAll()
			}

			data := pterm.TableData{{"APP ID", "VERSION", "INSTALLED", "INSTALLER PATH", "DEPENDENCIES"}}
			for _, rec := range records {
				installed := "no"
				if rec.Installed {
					installed = "yes"
				}
				data = append(data, []string{rec.ID, rec.Version, installed, rec.InstallerPath, joinOrDash(rec.DependenciesInstalled)})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
}
