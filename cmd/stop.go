package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the components started by the last run",
		Long: `Stop every component recorded in the journal by the last successful
start, in reverse start order. A failing stop command is reported but does not
prevent the remaining components from being stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(osFS, globals, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.executor.SetOutput(cmd.OutOrStdout())
			return a.executor.ShutdownFromJournal(ctx)
		},
	}
}
