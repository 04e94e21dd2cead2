// Package forge is a library for writing build scripts in Go.
//
// A build script registers named targets on a Builder. Each target has a body that runs
// at most once per session and may declare other targets it needs. Bodies decide for
// themselves whether their outputs are stale and run external commands through the
// Context they receive:
//
//	b := forge.New()
//	_ = b.Register("hello", func(ctx context.Context, tc *forge.Context) error {
//		stale, err := tc.CheckStale(nil, []string{"hello.txt"})
//		if err != nil || !stale {
//			return err
//		}
//		return tc.Run(ctx, []string{"sh", "-c", "echo hello > hello.txt"}, nil)
//	}, forge.Help("Generate hello.txt"))
//	forge.Main(b)
package forge

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.trai.ch/forge/internal/adapters/cas"
	"go.trai.ch/forge/internal/adapters/fs"
	"go.trai.ch/forge/internal/adapters/logger"
	"go.trai.ch/forge/internal/adapters/shell"
	"go.trai.ch/forge/internal/adapters/telemetry/progrock"
	"go.trai.ch/forge/internal/adapters/watcher"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/cli"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/resolver"
)

type (
	// Builder is the registry of targets.
	Builder = resolver.Builder
	// Session tracks the targets resolved during one build invocation.
	Session = resolver.Session
	// Context is handed to a target body.
	Context = resolver.Context
	// TargetFunc is the body of a target.
	TargetFunc = resolver.TargetFunc
	// TargetOption configures a target at registration time.
	TargetOption = resolver.TargetOption
	// TargetInfo is the name and help text of a registered target.
	TargetInfo = domain.TargetInfo
	// BenignError is an expected failure, such as a command exiting with a non-zero status.
	BenignError = domain.BenignError
)

// Errors returned by Builder, Session and Context. Match them with errors.Is.
var (
	ErrTargetAlreadyExists = domain.ErrTargetAlreadyExists
	ErrTargetNotFound      = domain.ErrTargetNotFound
	ErrCycleDetected       = domain.ErrCycleDetected
	ErrEmptyCommand        = domain.ErrEmptyCommand
	ErrContextExpired      = domain.ErrContextExpired
	ErrInputNotFound       = domain.ErrInputNotFound
)

// Help sets the help text of a target.
func Help(text string) TargetOption {
	return resolver.WithHelp(text)
}

// Needs declares targets resolved, in order, before the body runs.
func Needs(names ...string) TargetOption {
	return resolver.WithNeeds(names...)
}

// IsBenign reports whether err is, or wraps, a *BenignError.
func IsBenign(err error) bool {
	return domain.IsBenign(err)
}

type options struct {
	stateFile string
	logOutput io.Writer
	stdout    io.Writer
	stderr    io.Writer
}

// Option configures New.
type Option func(*options)

// WithStateFile sets where the input digests recorded by Context.CheckChanged are kept.
func WithStateFile(path string) Option {
	return func(o *options) {
		o.stateFile = path
	}
}

// WithLogOutput redirects log messages, which go to stderr by default.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

// WithOutput sets where the output of commands started by Context.Run goes.
// Nil writers keep the process's standard streams.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *options) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// New creates an empty Builder backed by the file system and the process environment.
func New(opts ...Option) *Builder {
	o := options{stateFile: cas.DefaultPath}
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.New()
	log.SetOutput(o.logOutput)

	return resolver.NewBuilder(resolver.Dependencies{
		Logger:   log,
		Executor: shell.NewExecutor(log, o.stdout, o.stderr),
		Checker:  fs.NewMTimeChecker(),
		Hasher:   fs.NewHasher(fs.NewWalker()),
		Store:    cas.NewStore(o.stateFile),
	})
}

// Main runs the command line interface over the targets of b and exits the process.
// Arguments name the targets to build; see --help for the flags.
func Main(b *Builder) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := MainContext(ctx, b, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// MainContext runs the command line interface over the targets of b with the given
// arguments and returns the exit status. Listings, usage and the one-line report of a
// benign failure go to stdout and stderr. Log messages, including the diagnostics of any
// other failure, go to the log output of b (see WithLogOutput).
func MainContext(ctx context.Context, b *Builder, args []string, stdout, stderr io.Writer) int {
	log := b.Logger()
	walker := fs.NewWalker()

	a := app.New(app.Dependencies{
		Logger:    log,
		Telemetry: progrock.NewWithSummary,
		NewWatcher: func() (ports.Watcher, error) {
			return watcher.NewWatcher(walker, log, watcher.DefaultDebounceWindow)
		},
	})
	a.SetBuilder(b)

	opts := []cli.Option{cli.WithName(filepath.Base(os.Args[0]))}
	if settings, ok := log.(cli.LogSettings); ok {
		opts = append(opts, cli.WithLogSettings(settings))
	}

	if args == nil {
		args = []string{}
	}
	c := cli.New(a, opts...)
	c.SetArgs(args)
	c.SetOutput(stdout, stderr)
	return c.Run(ctx, log)
}
