package cmd

import (
	"context"
	"errors"

	"github.com/dmorgan81/imagegen/internal/cli"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"run"},
	Short:   "Prompt for text and generate images until exit",
	RunE:    runInteractive,
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	ctx, injector, err := setup(cmd.Context(), v)
	if err != nil {
		return err
	}
	defer func() { _ = injector.Shutdown() }()

	loop, err := do.Invoke[*cli.Loop](injector)
	if err != nil {
		return err
	}
	loop.In = cmd.InOrStdin()
	loop.Out = cmd.OutOrStdout()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
