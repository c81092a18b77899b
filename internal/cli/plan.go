package cli

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewPlanCmd creates the plan command. The plan is always printed; the
// command fails when any step is blocked so scripts can gate on the exit
// code.
func NewPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan APP_ID",
		Short: "Show the ordered install plan for an application",
		Args:  cobra.ExactArgs(1),
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

			plan, err := mgr.Plan(args[0])
			if err != nil {
				return err
			}

			data := pterm.TableData{{"ACTION", "APP ID", "VERSION", "STATUS", "NOTES"}}
			for _, step := range plan.Steps {
				status := "not installed"
				if step.Installed {
					status = "installed"
				}
				data = append(data, []string{string(step.Action), step.ID, step.Version, status, step.Notes})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
				return err
			}

			for _, w := range plan.Warnings {
				pterm.Warning.Println(w)
			}
			if plan.HasBlocked() {
				return fmt.Errorf("plan for %q contains blocked steps", args[0])
			}
			return nil
		},
	}
}
