package install

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cloudstrap/cloudstrap/internal/config"
	"github.com/cloudstrap/cloudstrap/internal/runner"
	"github.com/cloudstrap/cloudstrap/internal/store"
)

// Context wraps the dependencies and state a step needs. It is built once
// per run and passed to every step; the embedded context.Context carries
// the abort signal checked at step boundaries.
type Context struct {
	context.Context
	Options  config.Options
	Timeouts *config.Timeouts
	Runner   runner.Runner
	State    *State
	Store    *store.Store
	Log      zerolog.Logger
}

// NewContext creates a run context with a fresh State.
func NewContext(ctx context.Context, opts config.Options, r runner.Runner, st *store.Store, log zerolog.Logger) *Context {
	return &Context{
		Context:  ctx,
		Options:  opts,
		Timeouts: config.LoadTimeouts(),
		Runner:   r,
		State:    NewState(),
		Store:    st,
		Log:      log,
	}
}
