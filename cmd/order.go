package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZacxDev/eagerstart/component"
	"github.com/ZacxDev/eagerstart/logging"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"

	"github.com/spf13/cobra"
)

const (
	outputTable = "table"
	outputPlain = "plain"
	outputJSON  = "json"
)

type orderOptions struct {
	Output   string
	Shutdown bool
	Watch    bool
}

type orderResult struct {
	Component string   `json:"component"`
	Direction string   `json:"direction"`
	Order     []string `json:"order"`
}

func newOrderCmd() *cobra.Command {
	var opts orderOptions

	cmd := &cobra.Command{
		Use:   "order <component>",
		Short: "Print the order in which a component's dependencies start",
		Long: `Print every component the given component transitively depends on,
in the order they are started. With --shutdown the component itself comes
first, followed by its dependencies in the order they are stopped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.Output); err != nil {
				return err
			}
			if opts.Watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return watchOrder(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
			}
			a, err := loadApp(osFS, globals, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runOrder(cmd.OutOrStdout(), a, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", outputTable, "output format: table, plain or json")
	cmd.Flags().BoolVar(&opts.Shutdown, "shutdown", false, "print the shutdown order instead")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "recompute whenever a descriptor changes")

	return cmd
}

func validateOutput(output string) error {
	switch output {
	case outputTable, outputPlain, outputJSON:
		return nil
	}
	return errors.Errorf("unknown output format %q (want %s, %s or %s)", output, outputTable, outputPlain, outputJSON)
}

func runOrder(out io.Writer, a *app, name string, opts orderOptions) error {
	if !a.manager.Graph().Declared(name) {
		return errors.Errorf("unknown component %q", name)
	}

	result := orderResult{Component: name, Direction: "startup"}
	var err error
	if opts.Shutdown {
		result.Direction = "shutdown"
		result.Order, err = a.manager.ShutdownOrder(name)
	} else {
		result.Order, err = a.executor.Order(name)
	}
	if err != nil {
		return err
	}

	components := make(map[string]*component.Singleton)
	for _, c := range a.executor.Components() {
		components[c.Name] = c
	}

	return renderOrder(out, result, components, opts.Output)
}

func renderOrder(out io.Writer, result orderResult, components map[string]*component.Singleton, output string) error {
	switch output {
	case outputPlain:
		for _, name := range result.Order {
			fmt.Fprintln(out, name)
		}
		return nil
	case outputJSON:
		if result.Order == nil {
			result.Order = []string{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	if len(result.Order) == 0 {
		fmt.Fprintf(out, "%s\n", text.FgYellow.Sprintf("%s has no dependencies", result.Component))
		return nil
	}

	title, command := "Startup", "START"
	if result.Direction == "shutdown" {
		title, command = "Shutdown", "STOP"
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("%s order for %s", title, result.Component)
	t.AppendHeader(table.Row{"#", "COMPONENT", "MODULE", command})

	for i, name := range result.Order {
		c, ok := components[name]
		if !ok {
			t.AppendRow(table.Row{i + 1, name, text.FgHiBlack.Sprint("(undeclared)"), ""})
			continue
		}
		cmdline := c.Start
		if result.Direction == "shutdown" {
			cmdline = c.Stop
		}
		t.AppendRow(table.Row{i + 1, name, c.Module, cmdline})
	}

	t.Render()
	return nil
}

// watchOrder prints the order, then prints it again after every descriptor
// change until ctx is done. Load and ordering errors are reported, not fatal.
func watchOrder(ctx context.Context, out, errOut io.Writer, name string, opts orderOptions) error {
	render := func() {
		a, err := loadApp(osFS, globals, errOut)
		if err == nil {
			err = runOrder(out, a, name, opts)
		}
		if err != nil {
			fmt.Fprintf(errOut, "%s %v\n", text.FgRed.Sprint("error:"), err)
		}
	}

	render()

	settings, err := resolveSettings(osFS, globals)
	if err != nil {
		return err
	}
	paths, err := watchPaths(osFS, settings)
	if err != nil {
		return err
	}

	logging.Info("Watch", "Watching %d director(ies) for descriptor changes", len(paths))
	return watchDescriptors(ctx, paths, defaultDebounce, render)
}
