package resolver_test

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/engine/resolver"
)

func TestBuilder_Register_Duplicate(t *testing.T) {
	b := resolver.NewBuilder(resolver.Dependencies{})

	require.NoError(t, b.Register("build", nil))

	err := b.Register("build", nil, resolver.WithHelp("again"))
	require.ErrorIs(t, err, domain.ErrTargetAlreadyExists)
	assert.Equal(t, "build", metadata(t, err)["target"])

	infos := b.ListTargets()
	require.Len(t, infos, 1)
	assert.Empty(t, infos[0].Help, "the rejected registration must not replace the first one")
}

func TestBuilder_ListTargets(t *testing.T) {
	b := resolver.NewBuilder(resolver.Dependencies{})
	require.NoError(t, b.Register("build", nil))
	require.NoError(t, b.Register("run", nil, resolver.WithHelp("Run the application"), resolver.WithNeeds("build")))

	infos := b.ListTargets()
	slices.SortFunc(infos, func(a, b domain.TargetInfo) int { return strings.Compare(a.Name, b.Name) })

	assert.Equal(t, []domain.TargetInfo{
		{Name: "build"},
		{Name: "run", Help: "Run the application"},
	}, infos)
}

func TestBuilder_Register_PhonyTarget(t *testing.T) {
	b := resolver.NewBuilder(resolver.Dependencies{})
	var ran []string
	for _, name := range []string{"lint-src", "lint-test"} {
		require.NoError(t, b.Register(name, func(_ context.Context, tc *resolver.Context) error {
			ran = append(ran, tc.TargetName())
			return nil
		}))
	}
	require.NoError(t, b.Register("lint", nil,
		resolver.WithHelp("Perform static analysis on all source files"),
		resolver.WithNeeds("lint-src"),
		resolver.WithNeeds("lint-test"),
	))

	s := b.NewSession(false)
	require.NoError(t, s.Resolve(context.Background(), "lint"))
	assert.Equal(t, []string{"lint-src", "lint-test"}, ran)
	assert.True(t, s.IsResolved("lint"))
}

func TestBuilder_NewSession_ForceRebuild(t *testing.T) {
	b := resolver.NewBuilder(resolver.Dependencies{})
	var seen []bool
	require.NoError(t, b.Register("probe", func(_ context.Context, tc *resolver.Context) error {
		seen = append(seen, tc.ForceRebuild())
		return nil
	}))

	forced := b.NewSession(true)
	assert.True(t, forced.ForceRebuild())
	require.NoError(t, forced.Resolve(context.Background(), "probe"))
	require.NoError(t, b.Resolve(context.Background(), "probe"))

	assert.Equal(t, []bool{true, false}, seen)
}
