package install

import (
	"errors"
	"fmt"
)

// Well-known SharedState keys. Each key has exactly one writer step; every
// reader runs after that writer by construction.
const (
	KeyIface        = "iface"
	KeyIfaceIP      = "iface.ip"
	KeyIfaceNet     = "iface.network"
	KeyGateway      = "gateway"
	KeyDHCPLow      = "dhcp.low"
	KeyDHCPHigh     = "dhcp.high"
	KeyClusterUUID  = "cluster.uuid"
	KeyAPIKey       = "metal.apikey"
	KeyAdminSecret  = "admin.secret"
	KeyBootstrapMAC = "bootstrap.mac"
	KeyBootstrapID  = "bootstrap.id"
)

// KeyError is returned when a step reads a fact that no earlier step has
// written. It indicates a step-ordering bug, so reads fail fast instead of
// returning a zero value.
type KeyError struct {
	Key string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("state key %q not yet written", e.Key)
}

// IsMissingKey reports whether err is (or wraps) a KeyError.
func IsMissingKey(err error) bool {
	var ke *KeyError
	return errors.As(err, &ke)
}

// State holds the facts discovered during a run: interface name, gateway
// address, cluster identifier, generated credentials, bootstrap host
// address. It is created at pipeline start and populated incrementally.
// No synchronization is needed: steps execute one at a time and each key
// has a single writer.
type State struct {
	facts map[string]string
}

// NewState creates an empty run state.
func NewState() *State {
	return &State{facts: make(map[string]string)}
}

// Set records a fact. Overwriting is allowed only in the sense that the
// pipeline design never does it; Set does not police its callers.
func (s *State) Set(key, value string) {
	s.facts[key] = value
}

// Get returns a previously written fact or *KeyError if the writer step
// has not run.
func (s *State) Get(key string) (string, error) {
	v, ok := s.facts[key]
	if !ok {
		return "", &KeyError{Key: key}
	}
	return v, nil
}
