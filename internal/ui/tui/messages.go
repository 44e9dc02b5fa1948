// Package tui provides the Bubble Tea terminal dashboard for an install run.
package tui

import "github.com/cloudstrap/cloudstrap/internal/install"

// ProgressMsg carries one progress event from the pipeline.
type ProgressMsg struct {
	Percent int
	Message string
}

// ResultMsg carries the terminal outcome of the run.
type ResultMsg struct {
	Result install.Result
}

// StreamClosedMsg signals that the progress stream ended. Without a prior
// 100% event this is an abnormal termination.
type StreamClosedMsg struct{}

// TickMsg is sent periodically to animate the spinner.
type TickMsg struct{}
