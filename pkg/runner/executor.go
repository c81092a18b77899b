package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/glorpus-work/instill/pkg/errors"
)

// Result describes one executed (or dry-run) installer command.
type Result struct {
	Command  []string // the full argv that ran, or would have run
	ExitCode int
	Stdout   string
	Stderr   string
	DryRun   bool
}

// ExitError is returned when an installer process exits non-zero. It carries
// the exit code and captured stderr; the core never retries.
type ExitError struct {
	Command  []string
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("installer command %v exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
}

// Unwrap ties process failures to the installer category.
func (e *ExitError) Unwrap() error { return errors.ErrInstaller }

// Executor runs installer commands. Injecting it keeps the whole pipeline
// unit-testable without touching the OS.
type Executor interface {
	Run(ctx context.Context, argv []string) (Result, error)
}

// OSExecutor runs commands through os/exec, capturing output.
type OSExecutor struct{}

// Run executes argv and returns the captured result. A non-zero exit is an
// ExitError.
func (OSExecutor) Run(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.Wrap(errors.ErrInstaller, "empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Command: argv,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return res, &ExitError{Command: argv, ExitCode: res.ExitCode, Stderr: res.Stderr}
		}
		return res, errors.Wrapf(errors.ErrInstaller, "failed to start %v: %v", argv, err)
	}
	return res, nil
}

// DryRunExecutor performs no process execution; Run returns a synthetic
// successful result carrying only the command that would have run.
type DryRunExecutor struct{}

// Run returns a synthetic success.
func (DryRunExecutor) Run(_ context.Context, argv []string) (Result, error) {
	return Result{Command: argv, DryRun: true}, nil
}

// DefaultExecutor returns a real executor on Windows and a dry-run executor
// everywhere else, where the synthesized commands could not run anyway.
func DefaultExecutor() Executor {
	if runtime.GOOS == "windows" {
		return OSExecutor{}
	}
	return DryRunExecutor{}
}
