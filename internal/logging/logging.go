// Package logging configures the append-only install log.
//
// All external commands and pipeline transitions are recorded here so a
// failed install can be diagnosed after the fact. The UI surface stays
// simple; causes land in the log file, not the terminal.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// LogFileName is the name of the install log inside the install directory.
const LogFileName = "commands.log"

// Open creates (or appends to) the install log in dir and returns a logger
// writing to it. The caller owns the returned closer.
func Open(dir string) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, LogFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open install log: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(file).With().Timestamp().Logger()
	return logger, file, nil
}

// Component returns a child logger tagged with a component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
