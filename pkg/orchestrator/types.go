//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . Planner,Downloader,Verifier,Runner,StateStore,Catalog

package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/glorpus-work/instill/pkg/errors"
	"github.com/glorpus-work/instill/pkg/model"
	"github.com/glorpus-work/instill/pkg/runner"
)

// Planner is the subset of the install planner used by the manager.
type Planner interface {
	BuildInstallPlan(rootID string) (*model.InstallPlan, error)
}

// Downloader fetches installer payloads into the cache.
type Downloader interface {
	Fetch(ctx context.Context, app model.AppMetadata) (path string, cacheHit bool, err error)
}

// Verifier checks payload integrity and authenticity before execution.
type Verifier interface {
	Verify(app model.AppMetadata, path string) error
}

// Runner executes installer commands.
type Runner interface {
	Install(ctx context.Context, app model.AppMetadata, installerPath string) (runner.Result, error)
	Uninstall(ctx context.Context, app model.AppMetadata, installerPath string) (runner.Result, error)
}

// StateStore is the durable record of installed applications.
type StateStore interface {
	MarkInstalled(id, version, installerPath string, deps []string) (*model.AppStatus, error)
	MarkUninstalled(id string) error
	Get(id string) *model.AppStatus
	IsInstalled(id, version string) bool
	List() []*model.AppStatus
}

// Catalog is the subset of the catalog used by the manager.
type Catalog interface {
	Get(id string) (model.AppMetadata, error)
	Apps() []model.AppMetadata
}

// Event is a simple progress notification.
type Event struct {
	Phase string // planning|downloading|verifying|installing|uninstalling|done
	ID    string // app id the event concerns, if any
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// DependentsError is returned when an uninstall is refused because other
// installed applications still depend on the target.
type DependentsError struct {
	ID         string
	Dependents []string // sorted
}

// Error implements the error interface.
func (e *DependentsError) Error() string {
	return fmt.Sprintf("cannot uninstall %q: still required by installed apps: %s",
		e.ID, strings.Join(e.Dependents, ", "))
}

// Unwrap ties the refusal to the dependency category.
func (e *DependentsError) Unwrap() error { return errors.ErrDependency }
