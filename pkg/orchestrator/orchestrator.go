// Package orchestrator ties the catalog, planner, downloader, verifier,
// runner and state store together to implement the install, uninstall,
// status and plan operations. It enforces the cross-cutting invariants: no
// app is installed before all of its dependencies, nothing executes before
// it verifies, state is only mutated after a step fully succeeds, and an
// uninstall is refused while installed dependents remain.
package orchestrator

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/glorpus-work/instill/pkg/errors"
	"github.com/glorpus-work/instill/pkg/model"
	"github.com/rs/zerolog"
)

// Manager orchestrates installs and uninstalls over a single catalog. The
// core is a synchronous single-caller pipeline: callers embedding it in a
// concurrent context must serialize Manager calls per catalog.
type Manager struct {
	Catalog  Catalog
	Planner  Planner
	DL       Downloader
	Verifier Verifier
	Runner   Runner
	State    StateStore
	Hooks    Hooks

	log zerolog.Logger
}

// New wires a Manager from existing components. Hooks may be zero-valued.
func New(cat Catalog, planner Planner, dl Downloader, verifier Verifier, run Runner, state StateStore, hooks Hooks, log zerolog.Logger) *Manager {
	return &Manager{
		Catalog:  cat,
		Planner:  planner,
		DL:       dl,
		Verifier: verifier,
		Runner:   run,
		State:    state,
		Hooks:    hooks,
		log:      log,
	}
}

func (m *Manager) emit(e Event) {
	if m.Hooks.OnEvent != nil {
		m.Hooks.OnEvent(e)
	}
}

// installFrame is one entry of the explicit install walk stack.
type installFrame struct {
	app  model.AppMetadata
	next int // index of the next dependency to enter
}

// Install installs the app and all of its dependencies, dependencies first.
// An id already installed at the catalog version is a no-op. The walk keeps
// its own in-progress set, distinct from the planner's cycle check, so a
// stale plan can never recurse into an id already on the active chain.
func (m *Manager) Install(ctx context.Context, id string) error {
	root, err := m.Catalog.Get(id)
	if err != nil {
		return err
	}

	inProgress := map[string]struct{}{root.ID: {}}
	done := map[string]struct{}{}
	stack := []installFrame{{app: root}}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]

		if f.next < len(f.app.Dependencies) {
			dep := f.app.Dependencies[f.next]
			f.next++

			if _, ok := done[dep]; ok {
				continue
			}
			if _, ok := inProgress[dep]; ok {
				return errors.Wrapf(errors.ErrDependency, "circular dependency at %q", dep)
			}
			depApp, err := m.Catalog.Get(dep)
			if err != nil {
				return errors.Wrapf(errors.ErrDependency,
					"app %q depends on %q which is not in the catalog", f.app.ID, dep)
			}
			inProgress[dep] = struct{}{}
			stack = append(stack, installFrame{app: depApp})
			continue
		}

		// All dependencies of this frame are installed; install it.
		app := f.app
		stack = stack[:len(stack)-1]
		delete(inProgress, app.ID)
		done[app.ID] = struct{}{}

		if err := m.installOne(ctx, app); err != nil {
			return err
		}
	}

	m.emit(Event{Phase: "done", ID: id})
	return nil
}

// installOne runs the download → verify → execute → record pipeline for a
// single app whose dependencies are already satisfied.
func (m *Manager) installOne(ctx context.Context, app model.AppMetadata) error {
	if m.State.IsInstalled(app.ID, app.Version) {
		m.log.Debug().Str("app", app.ID).Str("version", app.Version).Msg("already installed, skipping")
		m.emit(Event{Phase: "installing", ID: app.ID, Msg: "already installed, skipping"})
		return nil
	}

	m.emit(Event{Phase: "downloading", ID: app.ID, Msg: app.URI})
	path, cacheHit, err := m.DL.Fetch(ctx, app)
	if err != nil {
		return err
	}
	if cacheHit {
		m.log.Debug().Str("app", app.ID).Str("path", path).Msg("using cached payload")
	}

	m.emit(Event{Phase: "verifying", ID: app.ID, Msg: path})
	if err := m.Verifier.Verify(app, path); err != nil {
		return err
	}

	m.emit(Event{Phase: "installing", ID: app.ID, Msg: app.Name + " " + app.Version})
	if _, err := m.Runner.Install(ctx, app, path); err != nil {
		return err
	}

	if _, err := m.State.MarkInstalled(app.ID, app.Version, path, app.Dependencies); err != nil {
		return err
	}
	return nil
}

// Uninstall removes the app, refusing while any other installed app lists it
// as a dependency. The record is retained in the state store, flipped to
// not-installed.
func (m *Manager) Uninstall(ctx context.Context, id string) error {
	app, err := m.Catalog.Get(id)
	if err != nil {
		return err
	}
	rec := m.State.Get(id)
	if rec == nil || !rec.Installed {
		return fmt.Errorf("app %q is not installed", id)
	}

	if deps := m.installedDependents(id); len(deps) > 0 {
		return &DependentsError{ID: id, Dependents: deps}
	}

	m.emit(Event{Phase: "uninstalling", ID: id, Msg: app.Name})
	if _, err := m.Runner.Uninstall(ctx, app, rec.InstallerPath); err != nil {
		return err
	}
	if err := m.State.MarkUninstalled(id); err != nil {
		return err
	}
	m.emit(Event{Phase: "done", ID: id})
	return nil
}

// installedDependents returns the sorted ids of installed apps whose
// dependency list contains id.
func (m *Manager) installedDependents(id string) []string {
	var out []string
	for _, other := range m.Catalog.Apps() {
		if other.ID == id || !slices.Contains(other.Dependencies, id) {
			continue
		}
		if rec := m.State.Get(other.ID); rec != nil && rec.Installed {
			out = append(out, other.ID)
		}
	}
	sort.Strings(out)
	return out
}

// Plan computes the ordered install plan for id without side effects.
func (m *Manager) Plan(id string) (*model.InstallPlan, error) {
	m.emit(Event{Phase: "planning", ID: id})
	return m.Planner.BuildInstallPlan(id)
}

// Status returns the state record for one app id, or nil if none exists.
func (m *Manager) Status(id string) *model.AppStatus {
	return m.State.Get(id)
}

// StatusAll returns all state records sorted by app id.
func (m *Manager) StatusAll() []*model.AppStatus {
	return m.State.List()
}

// Download fetches and verifies the payload for id without executing it.
func (m *Manager) Download(ctx context.Context, id string) (string, bool, error) {
	app, err := m.Catalog.Get(id)
	if err != nil {
		return "", false, err
	}
	path, cacheHit, err := m.DL.Fetch(ctx, app)
	if err != nil {
		return "", false, err
	}
	if err := m.Verifier.Verify(app, path); err != nil {
		return "", false, err
	}
	return path, cacheHit, nil
}
