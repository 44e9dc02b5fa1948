package commands

import (
	"github.com/spf13/cobra"

	"github.com/cloudstrap/cloudstrap/cmd/cloudstrap/handlers"
	"github.com/cloudstrap/cloudstrap/internal/config"
)

// Install returns the command that runs the installation pipeline.
//
// Optional flags:
//
//	--enable-swift: include the object storage service in the deployed stack
//	--placement: review service placement interactively before deployment
//	--interface: managed network interface (skips the interactive selector)
//	--no-ui: plain line output instead of the dashboard
func Install() *cobra.Command {
	var opts config.Options
	var iface string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the private cloud stack",
		Long: `Install the private cloud stack on this host.

The installer starts the bare-metal provisioning service, creates its admin
user and credentials, configures the managed network, imports boot images,
and bootstraps the orchestration environment. Progress is shown step by
step; the full command log is written to the install directory.

A failed install is restarted from the beginning: completed steps are not
rolled back and are not guaranteed idempotent.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Install(cmd.Context(), opts, iface)
		},
	}

	cmd.Flags().BoolVar(&opts.EnableSwift, "enable-swift", false, "Include the object storage service")
	cmd.Flags().BoolVar(&opts.EditPlacement, "placement", false, "Review placement before deployment")
	cmd.Flags().BoolVar(&opts.NonInteractive, "no-ui", false, "Plain line output instead of the dashboard")
	cmd.Flags().StringVar(&iface, "interface", "", "Managed network interface (default: ask)")

	return cmd
}
