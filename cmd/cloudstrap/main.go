// Package main is the entry point for the cloudstrap CLI.
//
// cloudstrap is an interactive installer that provisions a private cloud
// stack (a bare-metal provisioning service, a cluster orchestration tool,
// and the control-plane services) on a single host or a small fleet.
//
// Commands: install, version, completion.
//
// For detailed usage information, run:
//
//	cloudstrap --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudstrap/cloudstrap/cmd/cloudstrap/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// A termination signal aborts the run at the next step boundary;
	// commands already issued are left to finish.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
