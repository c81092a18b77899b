package model

// PlanAction is the decision the planner takes for a single app id.
type PlanAction string

const (
	// ActionSkip means the app is already installed at the requested version.
	ActionSkip PlanAction = "skip"
	// ActionInstall means the app will be downloaded, verified and executed.
	ActionInstall PlanAction = "install"
	// ActionBlocked means the app cannot be installed because it sits on a
	// dependency cycle or depends (transitively) on a missing catalog entry.
	ActionBlocked PlanAction = "blocked"
)

// InstallPlanStep is one entry of an install plan. Steps are ordered so that
// every dependency appears before its dependents.
type InstallPlanStep struct {
	ID        string
	Version   string
	Action    PlanAction
	Installed bool   // current on-disk status at planning time
	Notes     string // human-readable reason, e.g. the cycle or missing id
}

// InstallPlan is the ordered result of resolving one root app id.
type InstallPlan struct {
	Steps    []InstallPlanStep
	Warnings []string
}

// HasBlocked reports whether any step in the plan is blocked. Tooling treats
// a plan with blocked steps as a failure even though the plan itself is
// still returned for display.
func (p *InstallPlan) HasBlocked() bool {
	for _, s := range p.Steps {
		if s.Action == ActionBlocked {
			return true
		}
	}
	return false
}

// Step returns the step for the given app id, or nil if absent.
func (p *InstallPlan) Step(id string) *InstallPlanStep {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			return &p.Steps[i]
		}
	}
	return nil
}
