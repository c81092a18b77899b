package model

import "time"

// AppStatus is the durable record of one application's installation state.
// A record is created on first successful install, overwritten on reinstall
// or version change, and flipped to Installed=false on uninstall. Records are
// retained after uninstall for history.
type AppStatus struct {
	ID                    string    `json:"-"` // map key in the state file
	Version               string    `json:"version"`
	InstallerPath         string    `json:"installer_path"`
	Installed             bool      `json:"installed"`
	DependenciesInstalled []string  `json:"dependencies_installed"`
	InstalledAt           time.Time `json:"installed_at,omitempty"`
	UpdatedAt             time.Time `json:"updated_at,omitempty"`
}
