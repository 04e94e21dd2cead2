// Package resolver implements the target registry and the on-demand resolution engine.
package resolver

import (
	"context"
	"sync"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// TargetFunc is the body of a target. It runs at most once per session.
type TargetFunc func(ctx context.Context, tc *Context) error

// Target is a registered unit of work.
type Target struct {
	name  string
	help  string
	needs []string
	body  TargetFunc
}

// TargetOption configures a target at registration time.
type TargetOption func(*Target)

// WithHelp sets the human-readable help text of a target.
func WithHelp(help string) TargetOption {
	return func(t *Target) {
		t.help = help
	}
}

// WithNeeds declares prerequisites that are resolved, in order, before the body runs.
func WithNeeds(names ...string) TargetOption {
	return func(t *Target) {
		t.needs = append(t.needs, names...)
	}
}

// Dependencies are the collaborators a Builder hands to its sessions.
type Dependencies struct {
	Logger   ports.Logger
	Executor ports.Executor
	Checker  ports.StalenessChecker
	Hasher   ports.Hasher
	Store    ports.StateStore
}

// Builder is the registry of targets. It lives for the whole build script and is only
// read by the sessions it creates.
type Builder struct {
	deps Dependencies

	mu      sync.RWMutex
	targets map[string]*Target
}

// NewBuilder creates an empty Builder.
func NewBuilder(deps Dependencies) *Builder {
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}
	return &Builder{
		deps:    deps,
		targets: make(map[string]*Target),
	}
}

// Register adds a target under name.
// A nil body registers a target that only aggregates its needs.
// It returns an error if a target with the same name already exists.
func (b *Builder) Register(name string, body TargetFunc, opts ...TargetOption) error {
	if body == nil {
		body = func(context.Context, *Context) error { return nil }
	}

	t := &Target{name: name, body: body}
	for _, opt := range opts {
		opt(t)
	}
	if len(t.needs) > 0 {
		t.body = wrapWithNeeds(t.body, t.needs)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.targets[name]; exists {
		return zerr.With(zerr.Wrap(domain.ErrTargetAlreadyExists, "failed to register target"), "target", name)
	}
	b.targets[name] = t
	return nil
}

// wrapWithNeeds makes body resolve each of needs in the running session first.
func wrapWithNeeds(body TargetFunc, needs []string) TargetFunc {
	needs = append([]string(nil), needs...)
	return func(ctx context.Context, tc *Context) error {
		if err := tc.ResolveMany(ctx, needs...); err != nil {
			return err
		}
		return body(ctx, tc)
	}
}

// ListTargets returns the name and help text of every registered target, in no particular order.
func (b *Builder) ListTargets() []domain.TargetInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	infos := make([]domain.TargetInfo, 0, len(b.targets))
	for _, t := range b.targets {
		infos = append(infos, domain.TargetInfo{Name: t.name, Help: t.help})
	}
	return infos
}

// NewSession creates a session that resolves targets of this Builder.
// When forceRebuild is set, every staleness check reports stale.
func (b *Builder) NewSession(forceRebuild bool, opts ...SessionOption) *Session {
	return newSession(b, forceRebuild, opts...)
}

// Resolve resolves names, in order, in a fresh session.
func (b *Builder) Resolve(ctx context.Context, names ...string) error {
	return b.NewSession(false).ResolveMany(ctx, names...)
}

// Logger returns the logger the Builder reports resolution progress to.
func (b *Builder) Logger() ports.Logger {
	return b.deps.Logger
}

func (b *Builder) lookup(name string) (*Target, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.targets[name]
	return t, ok
}

type nopLogger struct{}

func (nopLogger) Debug(string) {}
func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(error)  {}
