package cmd

import (
	"errors"
	"io"
	"os"

	"github.com/ZacxDev/eagerstart/config"
	"github.com/ZacxDev/eagerstart/executor"
	"github.com/ZacxDev/eagerstart/fs"
	"github.com/ZacxDev/eagerstart/lifecycle"
	"github.com/ZacxDev/eagerstart/logging"
	pkgerrors "github.com/pkg/errors"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess    = 0
	ExitCodeError      = 1
	ExitCodeCycle      = 2
	ExitCodeDescriptor = 3
)

// globalOptions holds the persistent flags. Set values override the settings file.
type globalOptions struct {
	ConfigFile  string
	Descriptors []string
	Strict      bool
	LogLevel    string
}

var (
	globals globalOptions
	osFS    fs.FileSystem = fs.RealFileSystem{}
)

var rootCmd = &cobra.Command{
	Use:   "eagerstart",
	Short: "Start singleton components in dependency order",
	Long: `eagerstart reads singleton component declarations from Starlark
descriptors, orders each component after everything it depends on, and runs
their start commands in that order. Components are stopped in reverse.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a code describing the failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "eagerstart version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var cyclic *lifecycle.CyclicDependencyError
	if errors.As(err, &cyclic) {
		return ExitCodeCycle
	}

	var descriptorErr *config.DescriptorError
	if errors.As(err, &descriptorErr) {
		return ExitCodeDescriptor
	}

	var settingsErr *config.SettingsError
	if errors.As(err, &settingsErr) {
		return ExitCodeDescriptor
	}

	var unknown *lifecycle.UnknownDependencyError
	if errors.As(err, &unknown) {
		return ExitCodeDescriptor
	}

	return ExitCodeError
}

// app is everything a command needs after settings and descriptors are loaded.
type app struct {
	settings config.Settings
	manager  *lifecycle.Manager
	executor *executor.Executor
}

// resolveSettings reads the settings file and applies flag overrides.
func resolveSettings(filesystem fs.FileSystem, opts globalOptions) (config.Settings, error) {
	settingsFile := opts.ConfigFile
	if settingsFile == "" {
		settingsFile = config.DefaultSettingsFile
	}

	settings, err := config.LoadSettings(filesystem, settingsFile)
	if err != nil {
		return config.Settings{}, err
	}
	if len(opts.Descriptors) > 0 {
		settings.Descriptors = opts.Descriptors
	}
	if opts.Strict {
		settings.StrictUnknownNodes = true
	}
	if opts.LogLevel != "" {
		if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
			return config.Settings{}, &config.SettingsError{Path: "--log-level", Field: "logLevel", Msg: err.Error()}
		}
		settings.LogLevel = opts.LogLevel
	}
	return settings, nil
}

func loadApp(filesystem fs.FileSystem, opts globalOptions, logOutput io.Writer) (*app, error) {
	settings, err := resolveSettings(filesystem, opts)
	if err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(settings.LogLevel)
	logging.Init(level, logOutput)

	singletons, err := config.LoadDescriptors(filesystem, settings.Descriptors)
	if err != nil {
		return nil, pkgerrors.WithStack(err)
	}

	manager := lifecycle.NewManager(lifecycle.Options{StrictUnknownNodes: settings.StrictUnknownNodes})
	exec := executor.NewExecutor(manager, executor.RealCommandExecutor{}, executor.NewJournalManager(filesystem, settings.Journal))
	exec.SetShell(settings.Shell)
	for _, s := range singletons {
		exec.AddComponent(s)
	}

	return &app{settings: settings, manager: manager, executor: exec}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globals.ConfigFile, "config", "", "settings file (default is "+config.DefaultSettingsFile+")")
	rootCmd.PersistentFlags().StringArrayVar(&globals.Descriptors, "descriptor", nil, "descriptor glob, repeatable (overrides the settings file)")
	rootCmd.PersistentFlags().BoolVar(&globals.Strict, "strict", false, "fail when a dependency names an undeclared component")
	rootCmd.PersistentFlags().StringVar(&globals.LogLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(newOrderCmd())
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newVersionCmd())
}
