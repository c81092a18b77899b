// Package errors defines the failure categories shared across the installer
// core. Every error produced by the core wraps exactly one of the category
// sentinels below, so callers can match on category with errors.Is instead of
// inspecting message strings.
package errors

import "fmt"

// Failure categories.
var (
	// ErrCatalog covers malformed, duplicate or incomplete catalog records.
	// Catalog errors are fatal at load time; no partial catalog is returned.
	ErrCatalog = fmt.Errorf("catalog error")

	// ErrDownload covers unvetted domains, missing local sources, unsupported
	// URI schemes and undeterminable filenames.
	ErrDownload = fmt.Errorf("download error")

	// ErrVerification covers hash mismatches, HMAC signature mismatches and
	// rejected code-signing verdicts.
	ErrVerification = fmt.Errorf("verification error")

	// ErrDependency covers dependency cycles, installs blocked by missing
	// dependencies and uninstalls blocked by installed dependents.
	ErrDependency = fmt.Errorf("dependency error")

	// ErrInstaller covers unsupported installer types, non-zero process exits
	// and missing uninstall commands.
	ErrInstaller = fmt.Errorf("installer error")
)

// Frequently matched specific conditions.
var (
	// ErrAppNotFound is returned when an app id is absent from the catalog.
	ErrAppNotFound = fmt.Errorf("app not found: %w", ErrCatalog)

	// ErrDuplicateApp is returned when a catalog source defines the same
	// app id more than once.
	ErrDuplicateApp = fmt.Errorf("duplicate app id: %w", ErrCatalog)

	// ErrEmptyConfigPath is returned when a config path is required but empty.
	ErrEmptyConfigPath = fmt.Errorf("config file path cannot be empty")

	// ErrConfigParse is returned when the config file cannot be decoded.
	ErrConfigParse = fmt.Errorf("failed to parse config")

	// ErrConfigValidation is returned for structurally valid but unusable config.
	ErrConfigValidation = fmt.Errorf("invalid configuration")

	// ErrInvalidPath is returned for paths that are empty or not absolute
	// where an absolute path is required.
	ErrInvalidPath = fmt.Errorf("invalid path")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
