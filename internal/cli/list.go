package cli

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the applications in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := rootLogger(cfg)
			cat, err := loadCatalog(cfg, log)
			if err != nil {
				return err
			}

			data := pterm.TableData{{"APP ID", "NAME", "VERSION", "TYPE", "DEPENDENCIES"}}
			for _, app := range cat.Apps() {
				data = append(data, []string{
					app.ID, app.Name, app.Version, string(app.InstallerType), joinOrDash(app.Dependencies),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	out := items[0]
	for _, s := range items[1:] {
		out += ", " + s
	}
	return out
}
