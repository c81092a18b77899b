// Package planner resolves the dependency graph for a requested app id into
// an ordered install plan. The walk is an explicit stack-based depth-first
// traversal with the standard three-color scheme, so deep dependency chains
// never grow the call stack.
package planner

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/instill/pkg/errors"
	"github.com/glorpus-work/instill/pkg/model"
	"github.com/rs/zerolog"
)

// Catalog is the subset of the catalog used by the planner.
type Catalog interface {
	Get(id string) (model.AppMetadata, error)
	Has(id string) bool
}

// StateReader is the subset of the state store used by the planner.
type StateReader interface {
	Get(id string) *model.AppStatus
	IsInstalled(id, version string) bool
}

// Planner builds install plans over a catalog and the current install state.
type Planner struct {
	catalog Catalog
	state   StateReader
	log     zerolog.Logger
}

// New creates a planner over the given catalog and state.
func New(catalog Catalog, state StateReader, log zerolog.Logger) *Planner {
	return &Planner{catalog: catalog, state: state, log: log}
}

type color uint8

const (
	white color = iota // unvisited
	grey               // on the active traversal stack
	black              // fully processed
)

// frame is one entry of the explicit DFS stack.
type frame struct {
	id   string
	deps []string
	next int // index of the next dependency to visit
}

// BuildInstallPlan walks the dependency graph from rootID and returns an
// ordered plan. Step order is a valid topological order: every dependency
// appears before its dependents. Cycles and references to ids missing from
// the catalog mark the affected component blocked rather than failing the
// whole call; callers inspect InstallPlan.HasBlocked.
func (p *Planner) BuildInstallPlan(rootID string) (*model.InstallPlan, error) {
	plan := &model.InstallPlan{}
	colors := make(map[string]color)
	blocked := make(map[string]string) // id -> reason

	stack := []frame{}
	push := func(id string) error {
		app, err := p.catalog.Get(id)
		if err != nil {
			return err
		}
		colors[id] = grey
		stack = append(stack, frame{id: id, deps: app.Dependencies})
		return nil
	}

	if !p.catalog.Has(rootID) {
		return nil, errors.Wrapf(errors.ErrAppNotFound, "%q", rootID)
	}
	if err := push(rootID); err != nil {
		return nil, err
	}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]

		if f.next < len(f.deps) {
			dep := f.deps[f.next]
			f.next++

			switch {
			case !p.catalog.Has(dep):
				// Missing dependency: emit a blocked step for the dangling id
				// once, then block everything that required it.
				if colors[dep] != black {
					colors[dep] = black
					blocked[dep] = "not present in catalog"
					plan.Steps = append(plan.Steps, model.InstallPlanStep{
						ID:     dep,
						Action: model.ActionBlocked,
						Notes:  "not present in catalog",
					})
					plan.Warnings = append(plan.Warnings,
						fmt.Sprintf("dependency %q of %q is not present in the catalog", dep, f.id))
				}
				if _, already := blocked[f.id]; !already {
					blocked[f.id] = fmt.Sprintf("blocked by missing dependency %q", dep)
				}
			case colors[dep] == grey:
				// The dependency is on the active stack: a cycle. Block every
				// id from the repeated node up to the top of the stack.
				cycle := p.activeCycle(stack, dep)
				plan.Warnings = append(plan.Warnings,
					fmt.Sprintf("dependency cycle detected: %s", strings.Join(cycle, " -> ")))
				for _, id := range cycle[:len(cycle)-1] {
					if _, already := blocked[id]; !already {
						blocked[id] = fmt.Sprintf("member of dependency cycle (%s)", strings.Join(cycle, " -> "))
					}
				}
			case colors[dep] == black:
				if _, isBlocked := blocked[dep]; isBlocked {
					if _, already := blocked[f.id]; !already {
						blocked[f.id] = fmt.Sprintf("blocked by dependency %q", dep)
					}
				}
			default:
				if err := push(dep); err != nil {
					return nil, err
				}
			}
			continue
		}

		// All dependencies handled: emit the step post-order and pop.
		colors[f.id] = black
		plan.Steps = append(plan.Steps, p.buildStep(f.id, blocked))
		done := *f
		stack = stack[:len(stack)-1]

		if _, isBlocked := blocked[done.id]; isBlocked && len(stack) > 0 {
			parent := &stack[len(stack)-1]
			if _, already := blocked[parent.id]; !already {
				blocked[parent.id] = fmt.Sprintf("blocked by dependency %q", done.id)
			}
		}
	}

	if plan.HasBlocked() {
		p.log.Warn().Str("app", rootID).Int("steps", len(plan.Steps)).Msg("plan contains blocked steps")
	} else {
		p.log.Debug().Str("app", rootID).Int("steps", len(plan.Steps)).Msg("plan built")
	}
	return plan, nil
}

// activeCycle returns the ids on the active stack from the repeated node to
// the top, with the repeated node appended again to show the closed loop.
func (p *Planner) activeCycle(stack []frame, repeated string) []string {
	start := 0
	for i := range stack {
		if stack[i].id == repeated {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		cycle = append(cycle, f.id)
	}
	return append(cycle, repeated)
}

func (p *Planner) buildStep(id string, blocked map[string]string) model.InstallPlanStep {
	app, err := p.catalog.Get(id)
	if err != nil {
		// Only reachable for ids already validated by push.
		return model.InstallPlanStep{ID: id, Action: model.ActionBlocked, Notes: "not present in catalog"}
	}

	rec := p.state.Get(id)
	installed := rec != nil && rec.Installed

	step := model.InstallPlanStep{
		ID:        id,
		Version:   app.Version,
		Installed: installed,
	}
	if reason, isBlocked := blocked[id]; isBlocked {
		step.Action = model.ActionBlocked
		step.Notes = reason
		return step
	}
	if p.state.IsInstalled(id, app.Version) {
		step.Action = model.ActionSkip
		step.Notes = fmt.Sprintf("already installed at version %s", app.Version)
		return step
	}
	step.Action = model.ActionInstall
	return step
}
