package resolver

import (
	"context"
	"io"
	"slices"
	"strings"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTelemetry records every target resolution of the session on t.
func WithTelemetry(t ports.Telemetry) SessionOption {
	return func(s *Session) {
		s.telemetry = t
	}
}

// Session tracks which targets already resolved during one build invocation.
// A Session is not safe for concurrent use.
type Session struct {
	builder   *Builder
	force     bool
	telemetry ports.Telemetry

	resolved map[string]struct{}
	// resolving holds the chain of targets whose bodies are currently running, outermost first.
	resolving []string
}

func newSession(b *Builder, force bool, opts ...SessionOption) *Session {
	s := &Session{
		builder:  b,
		force:    force,
		resolved: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForceRebuild reports whether staleness checks are bypassed in this session.
func (s *Session) ForceRebuild() bool {
	return s.force
}

// IsResolved reports whether name already resolved successfully in this session.
func (s *Session) IsResolved(name string) bool {
	_, ok := s.resolved[name]
	return ok
}

// ResolveMany resolves names strictly in order and stops at the first failure.
func (s *Session) ResolveMany(ctx context.Context, names ...string) error {
	for _, name := range names {
		if err := s.Resolve(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Resolve runs the body of the named target unless it already resolved in this session.
// A failing body leaves the target unresolved and its error is returned unchanged.
func (s *Session) Resolve(ctx context.Context, name string) error {
	if s.IsResolved(name) {
		return nil
	}

	if i := slices.Index(s.resolving, name); i >= 0 {
		cycle := strings.Join(append(slices.Clone(s.resolving[i:]), name), " -> ")
		err := zerr.With(zerr.Wrap(domain.ErrCycleDetected, "failed to resolve target"), "target", name)
		return zerr.With(err, "cycle", cycle)
	}

	target, ok := s.builder.lookup(name)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrTargetNotFound, "failed to resolve target"), "target", name)
	}

	if err := ctx.Err(); err != nil {
		return zerr.With(zerr.Wrap(err, "resolution cancelled"), "target", name)
	}

	s.resolving = append(s.resolving, name)
	defer func() {
		s.resolving = s.resolving[:len(s.resolving)-1]
	}()

	return s.run(ctx, target)
}

func (s *Session) run(ctx context.Context, target *Target) error {
	log := s.builder.deps.Logger
	log.Debug("resolving target " + target.name)

	ctx, vertex := s.record(ctx, target.name)
	tc := newContext(s, target.name)

	err := target.body(ctx, tc)
	if err == nil {
		err = tc.commit()
	}
	tc.expire()

	if err != nil {
		log.Debug("target " + target.name + " failed")
		vertex.Complete(err)
		return err
	}

	s.resolved[target.name] = struct{}{}
	if tc.upToDate() {
		log.Debug("target " + target.name + " is up to date")
		vertex.Cached()
		return nil
	}
	vertex.Complete(nil)
	return nil
}

func (s *Session) record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	if s.telemetry == nil {
		return ctx, nopVertex{}
	}
	return s.telemetry.Record(ctx, name)
}

type nopVertex struct{}

func (nopVertex) Stdout() io.Writer { return io.Discard }
func (nopVertex) Stderr() io.Writer { return io.Discard }
func (nopVertex) Complete(error)    {}
func (nopVertex) Cached()           {}
