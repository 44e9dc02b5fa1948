// Package config holds installer options, file locations, and tunable
// timeouts for the cloudstrap install run.
package config

import (
	"os"
	"os/user"
	"path/filepath"
)

// Options enumerates the recognized installer flags.
type Options struct {
	// EnableSwift adds the object storage service to the deployed stack.
	EnableSwift bool

	// EditPlacement pauses before deployment for an interactive
	// placement review.
	EditPlacement bool

	// NonInteractive forces plain line output even on a TTY.
	NonInteractive bool
}

// Paths describes where the installer persists its state.
type Paths struct {
	// InstallDir is the per-user installation directory (mode 0700).
	InstallDir string
}

const (
	installDirName = ".cloudstrap"

	// CredentialsFile holds the provisioning service credentials (mode 0600).
	CredentialsFile = "credentials.json"

	// EnvironmentFile is the generated environment descriptor consumed by
	// the orchestration tool (mode 0600).
	EnvironmentFile = "environments.yaml"
)

// DefaultPaths resolves the install directory for the invoking user.
// When the installer runs under sudo, state belongs to the original user's
// home, not root's.
func DefaultPaths() (*Paths, error) {
	home, err := installHome()
	if err != nil {
		return nil, err
	}
	return &Paths{InstallDir: filepath.Join(home, installDirName)}, nil
}

// installHome returns the home directory of the user who invoked the
// installer, looking through sudo.
func installHome() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		u, err := user.Lookup(sudoUser)
		if err == nil {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// InstallUser returns the name of the user the installed files should be
// owned by.
func InstallUser() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		return sudoUser
	}
	u, err := user.Current()
	if err != nil {
		return "root"
	}
	return u.Username
}
