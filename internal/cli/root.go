// Package cli implements the command line interface shared by the forge binary and
// build scripts calling forge.Main.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/build"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// Application represents the application logic driven by the CLI.
type Application interface {
	Targets() []domain.TargetInfo
	Run(ctx context.Context, names []string, opts app.RunOptions) error
	Watch(ctx context.Context, names []string, opts app.RunOptions) error
}

// LogSettings is implemented by loggers whose verbosity and format the CLI can change.
type LogSettings interface {
	SetVerbose(verbose bool)
	SetJSON(enable bool)
}

// Option configures a CLI.
type Option func(*CLI)

// WithConfig adds the -c/--config flag. load is called with its value before any build command runs.
func WithConfig(defaultPath string, load func(path string) error) Option {
	return func(c *CLI) {
		c.configDefault = defaultPath
		c.loadConfig = load
	}
}

// WithLogSettings lets the -v and --log-format flags reconfigure log.
func WithLogSettings(log LogSettings) Option {
	return func(c *CLI) {
		c.logSettings = log
	}
}

// WithName sets the program name shown in usage and version output.
func WithName(name string) Option {
	return func(c *CLI) {
		c.name = name
	}
}

// CLI represents the command line interface for forge.
type CLI struct {
	app     Application
	rootCmd *cobra.Command

	name          string
	configDefault string
	loadConfig    func(path string) error
	logSettings   LogSettings
}

// New creates a new CLI instance with the given app.
// Bare arguments name the targets to build, as with the run command.
func New(a Application, opts ...Option) *CLI {
	c := &CLI{app: a, name: "forge"}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd := &cobra.Command{
		Use:               c.name + " [targets...]",
		Short:             "Build targets on demand, skipping those already up to date",
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           build.Version,
		PersistentPreRunE: c.setup,
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Log every target as it resolves")
	flags.String("log-format", "pretty", "Log format: pretty or json")
	if c.loadConfig != nil {
		flags.StringP("config", "c", c.configDefault, "Path to configuration file")
	}

	c.rootCmd = rootCmd
	c.addBuildFlags(rootCmd)
	rootCmd.Flags().Bool("print-targets", false, "Print available target names and their help messages")
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if printTargets, _ := cmd.Flags().GetBool("print-targets"); printTargets {
			return c.printTargets(cmd)
		}
		return c.run(cmd, args)
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newTargetsCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// Run executes the CLI and returns the process exit status. A benign failure is printed
// on one line; any other failure is reported through log.
func (c *CLI) Run(ctx context.Context, log ports.Logger) int {
	err := c.Execute(ctx)
	switch {
	case err == nil:
		return 0
	case domain.IsBenign(err):
		_, _ = fmt.Fprintln(c.rootCmd.ErrOrStderr(), err.Error())
	default:
		log.Error(err)
	}
	return 1
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if c.logSettings != nil {
		verbose, _ := cmd.Flags().GetBool("verbose")
		c.logSettings.SetVerbose(verbose)

		format, _ := cmd.Flags().GetString("log-format")
		switch format {
		case "pretty":
			c.logSettings.SetJSON(false)
		case "json":
			c.logSettings.SetJSON(true)
		default:
			return zerr.With(zerr.Wrap(domain.ErrInvalidLogFormat, "failed to configure logging"), "format", format)
		}
	}

	if c.loadConfig == nil || cmd.Name() == "help" {
		return nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	return c.loadConfig(path)
}

func (c *CLI) addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("always-make", "B", false, "Always re-make outputs, regardless of their cached state")
	cmd.Flags().Bool("summary", false, "Print a per-target summary when the build ends")
}

func (c *CLI) runOptions(cmd *cobra.Command) app.RunOptions {
	force, _ := cmd.Flags().GetBool("always-make")
	opts := app.RunOptions{Force: force}
	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		opts.Summary = cmd.ErrOrStderr()
	}
	return opts
}
