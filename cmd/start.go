package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZacxDev/eagerstart/ui"

	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	var showUI bool

	cmd := &cobra.Command{
		Use:   "start [component...]",
		Short: "Start components and everything they depend on",
		Long: `Start the named components after their dependencies. Without
arguments every eager component is started. If any start command fails, the
components already started are stopped again in reverse order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(osFS, globals, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if showUI {
				return runStartUI(ctx, a, args)
			}
			a.executor.SetOutput(cmd.OutOrStdout())
			return a.executor.Startup(ctx, args...)
		},
	}

	cmd.Flags().BoolVar(&showUI, "ui", false, "show a live status view while starting")
	return cmd
}

func runStartUI(ctx context.Context, a *app, roots []string) error {
	plan, err := a.executor.Plan(roots...)
	if err != nil {
		return err
	}

	a.executor.SetOutput(io.Discard)
	return ui.Run(ctx, "eagerstart startup", plan, a.executor.StatusManager(), func(ctx context.Context) error {
		return a.executor.Startup(ctx, roots...)
	})
}
