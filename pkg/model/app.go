// Package model provides the data structures shared between the catalog,
// planner, downloader, verifier, runner and state store.
package model

import (
	"fmt"
	"net/url"
	"strings"
)

// InstallerType identifies the packaging format of an installer payload and
// determines how the install command is synthesized.
type InstallerType string

const (
	// InstallerTypeMSI is a Windows Installer package run through msiexec.
	InstallerTypeMSI InstallerType = "msi"
	// InstallerTypeEXE is a self-contained installer executable.
	InstallerTypeEXE InstallerType = "exe"
	// InstallerTypeAPPX is an MSIX/APPX bundle installed via Add-AppxPackage.
	InstallerTypeAPPX InstallerType = "appx"
)

// ParseInstallerType maps a catalog string to a known installer type,
// case-insensitively. Unknown values are an error; the catalog load fails
// rather than carrying an installer it cannot execute.
func ParseInstallerType(s string) (InstallerType, error) {
	switch InstallerType(strings.ToLower(strings.TrimSpace(s))) {
	case InstallerTypeMSI:
		return InstallerTypeMSI, nil
	case InstallerTypeEXE:
		return InstallerTypeEXE, nil
	case InstallerTypeAPPX:
		return InstallerTypeAPPX, nil
	default:
		return "", fmt.Errorf("unknown installer type %q", s)
	}
}

// AppMetadata is one immutable catalog record describing an installable
// application. Records are read-only after catalog load.
type AppMetadata struct {
	ID               string        `json:"app_id"`
	Name             string        `json:"name"`
	Version          string        `json:"version"` // opaque, compared for equality only
	URI              string        `json:"uri"`
	SHA256           string        `json:"sha256"`
	InstallerType    InstallerType `json:"installer_type"`
	VettedDomains    []string      `json:"vetted_domains,omitempty"`
	Signature        string        `json:"signature,omitempty"`     // base64 HMAC-SHA256, co-required with SignatureKey
	SignatureKey     string        `json:"signature_key,omitempty"` // base64 HMAC key
	Dependencies     []string      `json:"dependencies,omitempty"`  // app ids, install-before-me order
	SilentArgs       []string      `json:"silent_args,omitempty"`
	UninstallCommand string        `json:"uninstall_command,omitempty"`
}

// GetURI returns the parsed URI of the installer payload, or nil if it does
// not parse.
func (a *AppMetadata) GetURI() *url.URL {
	u, err := url.Parse(a.URI)
	if err != nil {
		return nil
	}
	return u
}

// HasSignature reports whether the record carries an HMAC signature pair.
// Catalog validation guarantees the pair is both-or-neither.
func (a *AppMetadata) HasSignature() bool {
	return a.Signature != "" && a.SignatureKey != ""
}

// DomainVetted reports whether host is in the record's vetted domain set,
// compared case-insensitively.
func (a *AppMetadata) DomainVetted(host string) bool {
	for _, d := range a.VettedDomains {
		if strings.EqualFold(d, host) {
			return true
		}
	}
	return false
}
