package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout and retry budget values.
// These values can be customized via environment variables.
type Timeouts struct {
	Command           time.Duration // Default timeout for a single external command
	Bootstrap         time.Duration // Timeout for the environment bootstrap command
	RegistrationPolls int           // Attempt budget for cluster registration
	ImagePolls        int           // Attempt budget for boot image import
	NodeStatusPolls   int           // Attempt budget for bootstrap node commissioning
	PollInterval      time.Duration // Interval between readiness checks
	ImagePollInterval time.Duration // Interval between boot image checks
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - CLOUDSTRAP_TIMEOUT_COMMAND (default: 5m)
//   - CLOUDSTRAP_TIMEOUT_BOOTSTRAP (default: 30m)
//   - CLOUDSTRAP_POLLS_REGISTRATION (default: 60)
//   - CLOUDSTRAP_POLLS_IMAGES (default: 480)
//   - CLOUDSTRAP_POLLS_NODE_STATUS (default: 60)
//   - CLOUDSTRAP_POLL_INTERVAL (default: 5s)
//   - CLOUDSTRAP_POLL_INTERVAL_IMAGES (default: 15s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Command:           parseDuration("CLOUDSTRAP_TIMEOUT_COMMAND", 5*time.Minute),
		Bootstrap:         parseDuration("CLOUDSTRAP_TIMEOUT_BOOTSTRAP", 30*time.Minute),
		RegistrationPolls: parseInt("CLOUDSTRAP_POLLS_REGISTRATION", 60),
		ImagePolls:        parseInt("CLOUDSTRAP_POLLS_IMAGES", 480),
		NodeStatusPolls:   parseInt("CLOUDSTRAP_POLLS_NODE_STATUS", 60),
		PollInterval:      parseDuration("CLOUDSTRAP_POLL_INTERVAL", 5*time.Second),
		ImagePollInterval: parseDuration("CLOUDSTRAP_POLL_INTERVAL_IMAGES", 15*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set, parsing fails, or the value is not positive,
// the default value is returned. Intervals and timeouts divide and pace
// poll loops, so zero is as unusable as garbage.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set, parsing fails, or the value is not positive,
// the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}

	return i
}
