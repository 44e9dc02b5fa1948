package install

import (
	"fmt"
	"time"

	"github.com/cloudstrap/cloudstrap/internal/progress"
)

// Step is one named unit of the install pipeline. Immutable once
// constructed; the pipeline only invokes it.
type Step struct {
	// Percent is the overall progress reported for this step. The
	// terminal step reports 100, emitted only once it has succeeded.
	Percent int

	// Label is the human-readable name shown for this step.
	Label string

	// Action performs the work. It must not be retried by the pipeline;
	// retry policy lives inside the step.
	Action func(*Context) error
}

// Status is the pipeline's lifecycle state.
type Status int

const (
	Pending Status = iota
	Running
	Succeeded
	Failed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the terminal outcome of one pipeline invocation.
type Result struct {
	Status    Status
	StepLabel string // failing step for Failed, empty otherwise
	Err       error  // cause for Failed, context error for Aborted
}

// Pipeline is the ordered sequence of steps constituting one install run.
type Pipeline struct {
	steps  []Step
	status Status
}

// NewPipeline builds a pipeline from a statically percent-ordered step
// list. Ordering is enforced here, at construction, so the run loop never
// has to check monotonicity.
func NewPipeline(steps []Step) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("pipeline needs at least one step")
	}
	prev := -1
	for _, step := range steps {
		if step.Percent < 0 || step.Percent > 100 {
			return nil, fmt.Errorf("step %q has percent %d outside 0-100", step.Label, step.Percent)
		}
		if step.Percent < prev {
			return nil, fmt.Errorf("step %q regresses progress from %d to %d", step.Label, prev, step.Percent)
		}
		prev = step.Percent
	}
	if last := steps[len(steps)-1]; last.Percent != 100 {
		return nil, fmt.Errorf("terminal step %q must report 100, has %d", last.Label, last.Percent)
	}
	return &Pipeline{steps: steps, status: Pending}, nil
}

// Status returns the pipeline's current lifecycle state.
func (p *Pipeline) Status() Status { return p.status }

// Run executes the steps in order, emitting each step's percent and label
// as it starts. The terminal 100% event is the exception: it is emitted
// only after its action succeeds, so consumers can read an observed 100 as
// proof the run succeeded. On the first failure the pipeline stops;
// completed steps are not rolled back. Cancellation of ctx is honored at
// step boundaries only; a command already issued is left to finish.
func (p *Pipeline) Run(ctx *Context, sink progress.Sink) Result {
	start := time.Now()
	p.status = Running
	ctx.Log.Info().Int("steps", len(p.steps)).Msg("install started")

	for i, step := range p.steps {
		select {
		case <-ctx.Done():
			p.status = Aborted
			ctx.Log.Warn().Str("next_step", step.Label).Msg("install aborted")
			return Result{Status: Aborted, Err: ctx.Err()}
		default:
		}

		if step.Percent < 100 {
			sink.Emit(step.Percent, step.Label)
		}
		ctx.Log.Info().
			Str("step", step.Label).
			Int("percent", step.Percent).
			Int("order", i+1).
			Msg("step started")

		stepStart := time.Now()
		if err := step.Action(ctx); err != nil {
			p.status = Failed
			ctx.Log.Error().
				Str("step", step.Label).
				Dur("elapsed", time.Since(stepStart)).
				Err(err).
				Msg("step failed")
			return Result{Status: Failed, StepLabel: step.Label, Err: err}
		}
		if step.Percent == 100 {
			sink.Emit(step.Percent, step.Label)
		}

		ctx.Log.Info().
			Str("step", step.Label).
			Dur("elapsed", time.Since(stepStart).Round(time.Millisecond)).
			Msg("step completed")
	}

	p.status = Succeeded
	ctx.Log.Info().Dur("elapsed", time.Since(start).Round(time.Millisecond)).Msg("install completed")
	return Result{Status: Succeeded}
}
