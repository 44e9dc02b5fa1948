package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/cloudstrap/cloudstrap/internal/config"
	"github.com/cloudstrap/cloudstrap/internal/install"
	"github.com/cloudstrap/cloudstrap/internal/logging"
	"github.com/cloudstrap/cloudstrap/internal/netutil"
	"github.com/cloudstrap/cloudstrap/internal/progress"
	"github.com/cloudstrap/cloudstrap/internal/runner"
	"github.com/cloudstrap/cloudstrap/internal/store"
	"github.com/cloudstrap/cloudstrap/internal/ui/forms"
	"github.com/cloudstrap/cloudstrap/internal/ui/tui"
)

// Factory function variables for install - can be replaced in tests.
var (
	// defaultPaths resolves the per-user install directory.
	defaultPaths = config.DefaultPaths

	// openLog opens the append-only install log.
	openLog = logging.Open

	// openStore opens the credential and environment store.
	openStore = store.Open

	// newRunner creates the command runner used by pipeline steps.
	newRunner = func(logger zerolog.Logger) runner.Runner { return runner.New(logger) }

	// listInterfaces enumerates candidate network interfaces.
	listInterfaces = netutil.Interfaces

	// interfaceFacts resolves the address and network of an interface.
	interfaceFacts = netutil.AddrOf

	// selectInterface prompts for the managed interface.
	selectInterface = forms.SelectInterface

	// confirmPlacement runs the pre-deployment placement review.
	confirmPlacement = forms.ConfirmPlacement

	// stdoutIsTerminal reports whether stdout is an interactive terminal.
	stdoutIsTerminal = func() bool { return isatty.IsTerminal(os.Stdout.Fd()) }
)

// Install handles the install command.
//
// It assembles the run dependencies, asks the operator for the managed
// interface when one was not given on the command line, and drives the
// install pipeline. On a terminal the Bubble Tea dashboard renders
// progress; otherwise each step is printed as a plain line. The returned
// error is nil only when every step succeeded.
func Install(ctx context.Context, opts config.Options, iface string) error {
	paths, err := defaultPaths()
	if err != nil {
		return fmt.Errorf("failed to resolve install directory: %w", err)
	}

	logger, logCloser, err := openLog(paths.InstallDir)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	st, err := openStore(paths.InstallDir)
	if err != nil {
		return err
	}

	interactive := stdoutIsTerminal() && !opts.NonInteractive

	if iface == "" {
		if !interactive {
			return fmt.Errorf("--interface is required when running without a terminal")
		}
		names, err := listInterfaces()
		if err != nil {
			return fmt.Errorf("failed to enumerate network interfaces: %w", err)
		}
		iface, err = selectInterface(ctx, names)
		if err != nil {
			return err
		}
	}

	addr, prefix, err := interfaceFacts(iface)
	if err != nil {
		return fmt.Errorf("interface %q: %w", iface, err)
	}

	if opts.EditPlacement {
		if !interactive {
			return fmt.Errorf("--placement requires an interactive terminal")
		}
		proceed, err := confirmPlacement(ctx)
		if err != nil {
			return err
		}
		if !proceed {
			return fmt.Errorf("installation cancelled")
		}
	}

	r := newRunner(logging.Component(logger, "runner"))
	ictx := install.NewContext(ctx, opts, r, st, logging.Component(logger, "install"))
	ictx.State.Set(install.KeyIface, iface)
	ictx.State.Set(install.KeyIfaceIP, addr.String())
	ictx.State.Set(install.KeyIfaceNet, prefix.String())

	steps := install.Steps()
	pipe, err := install.NewPipeline(steps)
	if err != nil {
		return err
	}

	var result install.Result
	if interactive {
		result, err = runWithDashboard(ctx, ictx, pipe, steps)
		if err != nil {
			return err
		}
	} else {
		result = runWithLines(ictx, pipe, os.Stdout)
	}

	if result.Status == install.Succeeded {
		printInstallSuccess(paths)
	}
	return resultError(result)
}

// runWithDashboard drives the pipeline behind the Bubble Tea dashboard.
// Quitting the dashboard cancels the run; cancellation takes effect at
// the next step boundary.
func runWithDashboard(ctx context.Context, ictx *install.Context, pipe *install.Pipeline, steps []install.Step) (install.Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	ictx.Context = runCtx

	ch := progress.NewChannel(len(steps))
	program := tea.NewProgram(tui.NewModel(steps))

	var result install.Result
	done := make(chan struct{})
	go func() {
		result = pipe.Run(ictx, ch)
		close(done)
		ch.Close()
	}()
	go forwardProgress(program, ch, done, &result)

	_, uiErr := program.Run()
	cancel()
	<-done

	if uiErr != nil {
		return install.Result{}, fmt.Errorf("dashboard failed: %w", uiErr)
	}
	return result, nil
}

// progressDisplay is the part of the dashboard program the forwarder needs.
type progressDisplay interface {
	Send(msg tea.Msg)
}

// forwardProgress relays pipeline events to the dashboard. When the stream
// ends it delivers the recorded result; a stream that closed before a
// result was recorded is reported as such so the dashboard does not read
// the closure as success.
func forwardProgress(display progressDisplay, ch *progress.Channel, done <-chan struct{}, result *install.Result) {
	for ev := range ch.Events() {
		display.Send(tui.ProgressMsg{Percent: ev.Percent, Message: ev.Message})
	}
	select {
	case <-done:
		display.Send(tui.ResultMsg{Result: *result})
	default:
		display.Send(tui.StreamClosedMsg{})
	}
}

// runWithLines drives the pipeline with one printed line per step.
func runWithLines(ictx *install.Context, pipe *install.Pipeline, out *os.File) install.Result {
	ch := progress.NewChannel(1)

	var result install.Result
	done := make(chan struct{})
	go func() {
		defer close(done)
		result = pipe.Run(ictx, ch)
		ch.Close()
	}()

	for ev := range ch.Events() {
		fmt.Fprintf(out, "[%3d%%] %s\n", ev.Percent, ev.Message)
	}
	<-done
	return result
}

// resultError maps the pipeline outcome to the command's error.
func resultError(result install.Result) error {
	switch result.Status {
	case install.Succeeded:
		return nil
	case install.Aborted:
		return fmt.Errorf("installation aborted: %w", result.Err)
	default:
		return fmt.Errorf("step %q failed: %w", result.StepLabel, result.Err)
	}
}

// printInstallSuccess outputs completion message and artifact locations.
func printInstallSuccess(paths *config.Paths) {
	fmt.Printf("\nInstallation complete!\n")
	fmt.Printf("Credentials saved to: %s\n", filepath.Join(paths.InstallDir, config.CredentialsFile))
	fmt.Printf("Environment saved to: %s\n", filepath.Join(paths.InstallDir, config.EnvironmentFile))
	fmt.Printf("Install log: %s\n", filepath.Join(paths.InstallDir, logging.LogFileName))
}
