package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/forge/internal/engine/resolver"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

// recorder registers targets that append their name to a shared log when they run.
type recorder struct {
	b   *resolver.Builder
	log []string
}

func newRecorder() *recorder {
	return &recorder{b: resolver.NewBuilder(resolver.Dependencies{})}
}

func (r *recorder) add(t *testing.T, name string, needs ...string) {
	t.Helper()
	err := r.b.Register(name, func(context.Context, *resolver.Context) error {
		r.log = append(r.log, name)
		return nil
	}, resolver.WithNeeds(needs...))
	require.NoError(t, err)
}

func metadata(t *testing.T, err error) map[string]any {
	t.Helper()
	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr), "expected *zerr.Error, got %T", err)
	return zErr.Metadata()
}

func TestSession_Resolve_AtMostOnce(t *testing.T) {
	// Diamond: A needs B and C, both need D.
	r := newRecorder()
	r.add(t, "D")
	r.add(t, "B", "D")
	r.add(t, "C", "D")
	r.add(t, "A", "B", "C")

	s := r.b.NewSession(false)
	require.NoError(t, s.ResolveMany(context.Background(), "A", "A", "D", "B"))

	assert.Equal(t, []string{"D", "B", "C", "A"}, r.log)
	for _, name := range []string{"A", "B", "C", "D"} {
		assert.True(t, s.IsResolved(name), name)
	}
}

func TestSession_Resolve_NeedsInDeclaredOrder(t *testing.T) {
	r := newRecorder()
	r.add(t, "first")
	r.add(t, "second")
	r.add(t, "third")
	r.add(t, "all", "third", "first", "second")

	require.NoError(t, r.b.Resolve(context.Background(), "all"))
	assert.Equal(t, []string{"third", "first", "second", "all"}, r.log)
}

func TestSession_Resolve_EachSessionStartsEmpty(t *testing.T) {
	r := newRecorder()
	r.add(t, "build")
	r.add(t, "run", "build")

	require.NoError(t, r.b.Resolve(context.Background(), "build", "run"))
	require.NoError(t, r.b.Resolve(context.Background(), "build"))
	require.NoError(t, r.b.Resolve(context.Background(), "run"))

	assert.Equal(t, []string{"build", "run", "build", "build", "run"}, r.log)
}

func TestSession_Resolve_UnknownTarget(t *testing.T) {
	r := newRecorder()
	r.add(t, "known")
	r.add(t, "broken", "known", "missing")

	s := r.b.NewSession(false)
	err := s.Resolve(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTargetNotFound))
	assert.Equal(t, "missing", metadata(t, err)["target"])
	assert.Empty(t, r.log)

	err = s.Resolve(context.Background(), "broken")
	require.ErrorIs(t, err, domain.ErrTargetNotFound)
	assert.Equal(t, []string{"known"}, r.log)
	assert.True(t, s.IsResolved("known"))
	assert.False(t, s.IsResolved("broken"))
}

func TestSession_Resolve_FailureRollback(t *testing.T) {
	b := resolver.NewBuilder(resolver.Dependencies{})
	boom := errors.New("boom")
	calls := 0
	require.NoError(t, b.Register("flaky", func(context.Context, *resolver.Context) error {
		calls++
		if calls == 1 {
			return boom
		}
		return nil
	}))

	s := b.NewSession(false)
	err := s.Resolve(context.Background(), "flaky")
	require.ErrorIs(t, err, boom)
	assert.False(t, s.IsResolved("flaky"))

	fresh := b.NewSession(false)
	require.NoError(t, fresh.Resolve(context.Background(), "flaky"))
	assert.True(t, fresh.IsResolved("flaky"))
	assert.Equal(t, 2, calls)
}

func TestSession_Resolve_FailureUnwindsDependents(t *testing.T) {
	r := newRecorder()
	boom := errors.New("boom")
	require.NoError(t, r.b.Register("lib", func(context.Context, *resolver.Context) error {
		return boom
	}))
	r.add(t, "app", "lib")
	r.add(t, "docs")

	s := r.b.NewSession(false)
	err := s.ResolveMany(context.Background(), "docs", "app", "never")
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"docs"}, r.log)
	assert.True(t, s.IsResolved("docs"))
	assert.False(t, s.IsResolved("lib"))
	assert.False(t, s.IsResolved("app"))
}

func TestSession_Resolve_CallerMayRetryInSameSession(t *testing.T) {
	b := resolver.NewBuilder(resolver.Dependencies{})
	calls := 0
	require.NoError(t, b.Register("once-broken", func(context.Context, *resolver.Context) error {
		calls++
		if calls == 1 {
			return errors.New("first attempt fails")
		}
		return nil
	}))

	s := b.NewSession(false)
	require.Error(t, s.Resolve(context.Background(), "once-broken"))
	require.NoError(t, s.Resolve(context.Background(), "once-broken"))
	require.NoError(t, s.Resolve(context.Background(), "once-broken"))
	assert.Equal(t, 2, calls)
}

func TestSession_Resolve_CycleDetected(t *testing.T) {
	r := newRecorder()
	r.add(t, "a", "b")
	r.add(t, "b", "c")
	r.add(t, "c", "a")

	s := r.b.NewSession(false)
	err := s.Resolve(context.Background(), "a")
	require.ErrorIs(t, err, domain.ErrCycleDetected)

	meta := metadata(t, err)
	assert.Equal(t, "a -> b -> c -> a", meta["cycle"])
	assert.Equal(t, "a", meta["target"])
	assert.Empty(t, r.log)
	assert.False(t, s.IsResolved("a"))
}

func TestSession_Resolve_SelfCycleThroughContext(t *testing.T) {
	b := resolver.NewBuilder(resolver.Dependencies{})
	require.NoError(t, b.Register("self", func(ctx context.Context, tc *resolver.Context) error {
		return tc.Resolve(ctx, tc.TargetName())
	}))

	err := b.Resolve(context.Background(), "self")
	require.ErrorIs(t, err, domain.ErrCycleDetected)
	assert.Equal(t, "self -> self", metadata(t, err)["cycle"])
}

func TestSession_Resolve_DynamicDependency(t *testing.T) {
	r := newRecorder()
	r.add(t, "generated")
	require.NoError(t, r.b.Register("dynamic", func(ctx context.Context, tc *resolver.Context) error {
		if err := tc.ResolveMany(ctx, "generated", "generated"); err != nil {
			return err
		}
		r.log = append(r.log, tc.TargetName())
		return nil
	}))

	require.NoError(t, r.b.Resolve(context.Background(), "dynamic", "generated"))
	assert.Equal(t, []string{"generated", "dynamic"}, r.log)
}

func TestSession_Resolve_CancelledContext(t *testing.T) {
	r := newRecorder()
	r.add(t, "target")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.b.Resolve(ctx, "target")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.log)
}

func TestSession_Telemetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	checker := mocks.NewMockStalenessChecker(ctrl)
	telemetry := mocks.NewMockTelemetry(ctrl)
	fresh := mocks.NewMockVertex(ctrl)
	built := mocks.NewMockVertex(ctrl)
	broken := mocks.NewMockVertex(ctrl)

	b := resolver.NewBuilder(resolver.Dependencies{Checker: checker})
	require.NoError(t, b.Register("fresh", func(_ context.Context, tc *resolver.Context) error {
		_, err := tc.CheckStale([]string{"in"}, []string{"out"})
		return err
	}))
	require.NoError(t, b.Register("built", nil, resolver.WithNeeds("fresh")))
	boom := errors.New("boom")
	require.NoError(t, b.Register("broken", func(context.Context, *resolver.Context) error {
		return boom
	}))

	ctx := context.Background()
	checker.EXPECT().IsStale([]string{"in"}, []string{"out"}, false).Return(false, nil)
	gomock.InOrder(
		telemetry.EXPECT().Record(gomock.Any(), "built").Return(ctx, built),
		telemetry.EXPECT().Record(gomock.Any(), "fresh").Return(ctx, fresh),
		fresh.EXPECT().Cached(),
		built.EXPECT().Complete(nil),
		telemetry.EXPECT().Record(gomock.Any(), "broken").Return(ctx, broken),
		broken.EXPECT().Complete(boom),
	)

	s := b.NewSession(false, resolver.WithTelemetry(telemetry))
	err := s.ResolveMany(ctx, "built", "broken")
	require.ErrorIs(t, err, boom)
}
