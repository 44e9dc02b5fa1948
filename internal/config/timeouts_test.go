package config

import (
	"testing"
	"time"
)

func TestLoadTimeouts_Defaults(t *testing.T) {
	tm := LoadTimeouts()

	if tm.Command != 5*time.Minute {
		t.Errorf("Command = %v, want 5m", tm.Command)
	}
	if tm.Bootstrap != 30*time.Minute {
		t.Errorf("Bootstrap = %v, want 30m", tm.Bootstrap)
	}
	if tm.RegistrationPolls != 60 {
		t.Errorf("RegistrationPolls = %d, want 60", tm.RegistrationPolls)
	}
	if tm.ImagePolls != 480 {
		t.Errorf("ImagePolls = %d, want 480", tm.ImagePolls)
	}
}

func TestLoadTimeouts_EnvOverride(t *testing.T) {
	t.Setenv("CLOUDSTRAP_TIMEOUT_COMMAND", "90s")
	t.Setenv("CLOUDSTRAP_POLLS_REGISTRATION", "7")

	tm := LoadTimeouts()

	if tm.Command != 90*time.Second {
		t.Errorf("Command = %v, want 90s", tm.Command)
	}
	if tm.RegistrationPolls != 7 {
		t.Errorf("RegistrationPolls = %d, want 7", tm.RegistrationPolls)
	}
}

func TestLoadTimeouts_InvalidFallsBack(t *testing.T) {
	t.Setenv("CLOUDSTRAP_TIMEOUT_BOOTSTRAP", "not-a-duration")
	t.Setenv("CLOUDSTRAP_POLLS_IMAGES", "many")

	tm := LoadTimeouts()

	if tm.Bootstrap != 30*time.Minute {
		t.Errorf("Bootstrap = %v, want default 30m", tm.Bootstrap)
	}
	if tm.ImagePolls != 480 {
		t.Errorf("ImagePolls = %d, want default 480", tm.ImagePolls)
	}
}

func TestLoadTimeouts_NonPositiveFallsBack(t *testing.T) {
	t.Setenv("CLOUDSTRAP_POLL_INTERVAL", "0s")
	t.Setenv("CLOUDSTRAP_TIMEOUT_COMMAND", "-5s")
	t.Setenv("CLOUDSTRAP_POLLS_NODE_STATUS", "0")

	tm := LoadTimeouts()

	// A zero interval would divide the bootstrap budget by zero.
	if tm.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want default 5s", tm.PollInterval)
	}
	if tm.Command != 5*time.Minute {
		t.Errorf("Command = %v, want default 5m", tm.Command)
	}
	if tm.NodeStatusPolls != 60 {
		t.Errorf("NodeStatusPolls = %d, want default 60", tm.NodeStatusPolls)
	}
}

func TestInstallUserHonorsSudo(t *testing.T) {
	t.Setenv("SUDO_USER", "ubuntu")
	if got := InstallUser(); got != "ubuntu" {
		t.Errorf("InstallUser() = %q, want ubuntu", got)
	}
}
