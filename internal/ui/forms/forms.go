// Package forms contains the interactive prompts shown before the
// pipeline starts.
package forms

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
)

// SelectInterface asks which network interface the provisioning service
// should manage. The chosen interface must not already serve DHCP or DNS.
func SelectInterface(ctx context.Context, names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("no candidate network interfaces found")
	}

	opts := make([]huh.Option[string], 0, len(names))
	for _, name := range names {
		opts = append(opts, huh.NewOption(name, name))
	}

	var choice string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Managed Interface").
				Description("Select an interface that is not currently answering DHCP or DNS requests. The provisioning service will own it.").
				Options(opts...).
				Value(&choice),
		).Title("Network"),
	).RunWithContext(ctx)
	if err != nil {
		return "", err
	}
	return choice, nil
}

// ConfirmPlacement pauses before deployment so the operator can review
// service placement. Returns false if they back out.
func ConfirmPlacement(ctx context.Context) (bool, error) {
	proceed := true
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Review placement before deploying?").
				Description("Deployment continues once you confirm.").
				Affirmative("Deploy").
				Negative("Cancel").
				Value(&proceed),
		).Title("Placement"),
	).RunWithContext(ctx)
	if err != nil {
		return false, err
	}
	return proceed, nil
}
