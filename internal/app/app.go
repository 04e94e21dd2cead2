// Package app implements the application layer for forge: it turns declared targets into
// registered bodies and drives build sessions over them.
package app

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// TelemetryFactory creates the recorder of one build session, printing its summary to w.
type TelemetryFactory func(w io.Writer) ports.Telemetry

// WatcherFactory creates a file watcher for one watch loop.
type WatcherFactory func() (ports.Watcher, error)

// RunOptions configures a build.
type RunOptions struct {
	// Force makes every staleness check report stale.
	Force bool
	// Summary, when set, receives a per-target summary once the build ends.
	Summary io.Writer
}

// Dependencies are the collaborators of an App.
type Dependencies struct {
	Loader     ports.ConfigLoader
	Resolver   ports.InputResolver
	Logger     ports.Logger
	Executor   ports.Executor
	Checker    ports.StalenessChecker
	Hasher     ports.Hasher
	Store      ports.StateStore
	Telemetry  TelemetryFactory
	NewWatcher WatcherFactory
}

// App represents the main application logic.
type App struct {
	deps Dependencies

	builder *resolver.Builder
	specs   []domain.TargetSpec
}

// New creates a new App instance.
func New(deps Dependencies) *App {
	return &App{deps: deps}
}

// Builder returns the registry filled by Load, or nil before the first Load.
func (a *App) Builder() *resolver.Builder {
	return a.builder
}

// SetBuilder makes the App build the targets registered on b, in place of a configuration file.
func (a *App) SetBuilder(b *resolver.Builder) {
	a.builder = b
	a.specs = nil
}

// Load reads the configuration file at path and registers every declared target on a new Builder.
// Paths declared in the file are relative to the working directory.
func (a *App) Load(path string) error {
	specs, err := a.deps.Loader.Load(path)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	b := resolver.NewBuilder(resolver.Dependencies{
		Logger:   a.deps.Logger,
		Executor: a.deps.Executor,
		Checker:  a.deps.Checker,
		Hasher:   a.deps.Hasher,
		Store:    a.deps.Store,
	})
	for _, spec := range specs {
		if err := b.Register(spec.Name, a.body(spec),
			resolver.WithHelp(spec.Help),
			resolver.WithNeeds(spec.Needs...),
		); err != nil {
			return err
		}
	}

	a.builder = b
	a.specs = specs
	return nil
}

// Targets returns every registered target sorted by name.
func (a *App) Targets() []domain.TargetInfo {
	if a.builder == nil {
		return nil
	}
	infos := a.builder.ListTargets()
	slices.SortFunc(infos, func(x, y domain.TargetInfo) int {
		return cmp.Compare(x.Name, y.Name)
	})
	return infos
}

// Run resolves the named targets, in order, in a fresh session.
func (a *App) Run(ctx context.Context, names []string, opts RunOptions) (err error) {
	if a.builder == nil {
		return zerr.Wrap(domain.ErrNotConfigured, "no configuration loaded")
	}
	if len(names) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	var sessionOpts []resolver.SessionOption
	if opts.Summary != nil && a.deps.Telemetry != nil {
		telemetry := a.deps.Telemetry(opts.Summary)
		defer func() {
			if cerr := telemetry.Close(); cerr != nil && err == nil {
				err = zerr.Wrap(cerr, "failed to write build summary")
			}
		}()
		sessionOpts = append(sessionOpts, resolver.WithTelemetry(telemetry))
	}

	return a.builder.NewSession(opts.Force, sessionOpts...).ResolveMany(ctx, names...)
}

// Watch builds the named targets, then rebuilds them whenever a file below the working
// directory changes, until ctx is done. Changes to declared outputs do not trigger a rebuild,
// nor do changes made before the last build ended, which includes the build's own writes.
// Failures of a rebuild are logged and the loop keeps watching.
func (a *App) Watch(ctx context.Context, names []string, opts RunOptions) error {
	if a.deps.NewWatcher == nil {
		return zerr.Wrap(domain.ErrNotConfigured, "no file watcher")
	}
	if err := a.Run(ctx, names, opts); err != nil {
		if !domain.IsBenign(err) {
			return err
		}
		a.deps.Logger.Error(err)
	}
	built := time.Now()
	opts.Force = false

	root, err := filepath.Abs(".")
	if err != nil {
		return zerr.Wrap(err, "failed to resolve working directory")
	}
	outputs := a.outputs(root)

	w, err := a.deps.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = w.Stop()
	}()
	if err := w.Start(ctx, root); err != nil {
		return zerr.Wrap(err, "failed to start file watcher")
	}
	a.deps.Logger.Info("watching for changes in " + root)

	for batch := range w.Events() {
		changed := slices.DeleteFunc(slices.Clone(batch), func(e ports.WatchEvent) bool {
			if !e.Time.After(built) {
				return true
			}
			_, isOutput := outputs[filepath.Clean(e.Path)]
			return isOutput
		})
		if len(changed) == 0 {
			continue
		}

		a.deps.Logger.Info(describeChanges(root, changed))
		err := a.Run(ctx, names, opts)
		built = time.Now()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.deps.Logger.Error(err)
		}
	}
	return nil
}

// body builds the body of a declared target: skip when all outputs are up to date, then
// run the command.
func (a *App) body(spec domain.TargetSpec) resolver.TargetFunc {
	return func(ctx context.Context, tc *resolver.Context) error {
		if len(spec.Outputs) > 0 {
			inputs, err := a.deps.Resolver.ResolveInputs(spec.Inputs, ".")
			if err != nil {
				return zerr.With(err, "target", spec.Name)
			}

			var stale bool
			if spec.Check == domain.CheckDigest {
				stale, err = tc.CheckChanged(ctx, inputs, spec.Outputs)
			} else {
				stale, err = tc.CheckStale(inputs, spec.Outputs)
			}
			if err != nil || !stale {
				return err
			}
		}

		if len(spec.Command) == 0 {
			return nil
		}
		return tc.Run(ctx, spec.Command, environ(spec.Environment))
	}
}

// outputs returns the absolute paths of every declared output.
func (a *App) outputs(root string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, spec := range a.specs {
		for _, out := range spec.Outputs {
			if !filepath.IsAbs(out) {
				out = filepath.Join(root, out)
			}
			set[filepath.Clean(out)] = struct{}{}
		}
	}
	return set
}

// environ merges overrides into the current process environment.
// It returns nil, meaning inherit unchanged, when there are no overrides.
func environ(overrides map[string]string) map[string]string {
	if len(overrides) == 0 {
		return nil
	}
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	for k, v := range overrides {
		env[k] = v
	}
	return env
}

func describeChanges(root string, events []ports.WatchEvent) string {
	first := events[0].Path
	if rel, err := filepath.Rel(root, first); err == nil {
		first = rel
	}
	if len(events) == 1 {
		return first + " changed, rebuilding"
	}
	return fmt.Sprintf("%s and %d more files changed, rebuilding", first, len(events)-1)
}
