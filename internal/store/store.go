// Package store persists secrets and derived configuration generated
// during an install run. Files live in the per-user install directory
// (mode 0700) and are written with access restricted to the installing
// user (mode 0600). They outlive the run: later processes read them to
// reach the provisioned cluster.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// NotFoundError is returned by Load when no payload exists under a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no stored payload named %q", e.Name)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Store writes and reads named payloads under a single directory.
// Concurrent writers to the same name are not supported; the pipeline
// guarantees one writer step per name.
type Store struct {
	dir string
}

// Open ensures dir exists with owner-only permissions and returns a store
// rooted there.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	// MkdirAll leaves an existing directory's mode alone.
	if err := os.Chmod(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to restrict store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Save writes payload under name, restricted to the owning user.
func (s *Store) Save(name string, payload []byte) error {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}

// Load returns the payload stored under name, or *NotFoundError if absent.
func (s *Store) Load(name string) ([]byte, error) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return data, nil
}
