// Package runner executes external provisioning commands and returns
// structured output. A non-zero exit code is data, not an error; callers
// decide whether it is fatal. Commands are argv lists only; nothing here
// passes through a shell.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// Result holds the outcome of one external command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Ok reports whether the command exited zero.
func (r Result) Ok() bool { return r.ExitCode == 0 }

// Options configure a single command invocation.
type Options struct {
	// RunAs executes the command as another user via sudo -u.
	RunAs string

	// Dir is the working directory for the command.
	Dir string

	// Timeout bounds the command; zero means no bound beyond ctx.
	Timeout time.Duration

	// Env is appended to the inherited environment as KEY=VALUE pairs.
	Env []string
}

// ExecError indicates the command could not be launched at all.
type ExecError struct {
	Cmd string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to execute %s: %v", e.Cmd, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ExitError indicates the command ran and exited non-zero. It is produced
// only by callers that treat a non-zero exit as fatal (see CheckRun).
type ExitError struct {
	Cmd    string
	Result Result
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited %d: %s", e.Cmd, e.Result.ExitCode, firstLine(e.Result.Stderr))
}

// Runner executes external commands. The interface exists so steps can be
// tested against a fake without spawning processes.
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts Options) (Result, error)
}

// ExecRunner runs commands on the local host.
type ExecRunner struct {
	logger zerolog.Logger
}

// New creates a runner that records every invocation in the install log.
func New(logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run launches name with args and waits for completion. A non-zero exit is
// returned inside Result with err == nil; err is non-nil only when the
// command could not be launched (*ExecError) or the context ended.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, opts Options) (Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	argv := append([]string{name}, args...)
	if opts.RunAs != "" {
		argv = append([]string{"sudo", "-H", "-u", opts.RunAs}, argv...)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			r.logger.Error().
				Str("cmd", name).
				Strs("args", args).
				Dur("elapsed", elapsed).
				Err(err).
				Msg("command failed to launch")
			return Result{}, &ExecError{Cmd: name, Err: err}
		}
		result.ExitCode = exitErr.ExitCode()
	}

	r.logger.Info().
		Str("cmd", name).
		Strs("args", args).
		Int("exit", result.ExitCode).
		Dur("elapsed", elapsed).
		Msg("command completed")

	return result, nil
}

// CheckRun runs the command and converts a non-zero exit into *ExitError,
// for callers where any failure is fatal.
func CheckRun(ctx context.Context, r Runner, name string, args []string, opts Options) (Result, error) {
	result, err := r.Run(ctx, name, args, opts)
	if err != nil {
		return Result{}, err
	}
	if !result.Ok() {
		return result, &ExitError{Cmd: name, Result: result}
	}
	return result, nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
