// Package runner synthesizes the OS-level install and uninstall commands for
// each installer type and executes them through an injected Executor. The
// literal commands are a wire contract with existing catalogs and must not
// drift.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/glorpus-work/instill/pkg/errors"
	"github.com/glorpus-work/instill/pkg/model"
	"github.com/rs/zerolog"
)

// Runner executes installer payloads.
type Runner struct {
	exec Executor
	log  zerolog.Logger
}

// New creates a Runner using the given executor.
func New(exec Executor, log zerolog.Logger) *Runner {
	return &Runner{exec: exec, log: log}
}

// Install synthesizes and runs the install command for the payload at
// installerPath.
func (r *Runner) Install(ctx context.Context, app model.AppMetadata, installerPath string) (Result, error) {
	argv, err := installCommand(app, installerPath)
	if err != nil {
		return Result{}, err
	}
	r.log.Info().Str("app", app.ID).Strs("command", argv).Msg("running installer")
	return r.exec.Run(ctx, argv)
}

// Uninstall synthesizes and runs the uninstall command. installerPath may be
// empty when the metadata carries an explicit uninstall command.
func (r *Runner) Uninstall(ctx context.Context, app model.AppMetadata, installerPath string) (Result, error) {
	argv, err := uninstallCommand(app, installerPath)
	if err != nil {
		return Result{}, err
	}
	r.log.Info().Str("app", app.ID).Strs("command", argv).Msg("running uninstaller")
	return r.exec.Run(ctx, argv)
}

func installCommand(app model.AppMetadata, installerPath string) ([]string, error) {
	switch app.InstallerType {
	case model.InstallerTypeMSI:
		argv := []string{"msiexec", "/i", installerPath, "/qn", "/norestart"}
		return append(argv, app.SilentArgs...), nil
	case model.InstallerTypeEXE:
		argv := []string{installerPath}
		if len(app.SilentArgs) == 0 {
			return append(argv, "/quiet", "/norestart"), nil
		}
		return append(argv, app.SilentArgs...), nil
	case model.InstallerTypeAPPX:
		script := fmt.Sprintf("Add-AppxPackage -ForceApplicationShutdown \"%s\"", installerPath)
		return []string{"powershell", "-NoProfile", "-NonInteractive", "-Command", script}, nil
	default:
		return nil, errors.Wrapf(errors.ErrInstaller, "app %q: unsupported installer type %q", app.ID, app.InstallerType)
	}
}

func uninstallCommand(app model.AppMetadata, installerPath string) ([]string, error) {
	if app.UninstallCommand != "" {
		argv, err := tokenize(app.UninstallCommand)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInstaller, "app %q: invalid uninstall command: %v", app.ID, err)
		}
		return argv, nil
	}

	switch app.InstallerType {
	case model.InstallerTypeMSI:
		if installerPath == "" {
			return nil, errors.Wrapf(errors.ErrInstaller, "app %q: msi uninstall requires the installer path", app.ID)
		}
		return []string{"msiexec", "/x", installerPath, "/qn", "/norestart"}, nil
	default:
		return nil, errors.Wrapf(errors.ErrInstaller,
			"app %q: %s uninstall requires an explicit uninstall_command", app.ID, app.InstallerType)
	}
}

// tokenize splits a command line on whitespace, honoring single and double
// quotes so paths with spaces survive.
func tokenize(s string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		inTok   bool
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inTok = true
		case r == ' ' || r == '\t':
			if inTok {
				tokens = append(tokens, current.String())
				current.Reset()
				inTok = false
			}
		default:
			current.WriteRune(r)
			inTok = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unbalanced quote in %q", s)
	}
	if inTok {
		tokens = append(tokens, current.String())
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return tokens, nil
}
