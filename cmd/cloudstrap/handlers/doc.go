// Package handlers implements the business logic for CLI commands.
//
// Handlers receive parsed flags from the commands package, assemble the
// run dependencies (runner, store, install log), and drive the pipeline.
// Collaborators are held in package-level factory variables so tests can
// swap them for fakes.
package handlers
