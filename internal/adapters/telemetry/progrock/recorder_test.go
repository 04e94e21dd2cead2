package progrock_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/telemetry/progrock"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

func TestRecorder_Tape(t *testing.T) {
	recorder := progrock.New()

	ctx, vertex := recorder.Record(context.Background(), "build")
	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, vertex, fromCtx)

	_, err := vertex.Stdout().Write([]byte("standard output\n"))
	require.NoError(t, err)
	vertex.Complete(nil)

	assert.NoError(t, recorder.Close())
}

func TestRecorder_Summary(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	summary := progrock.NewSummary(&buf)
	recorder := progrock.NewRecorder(summary)
	ctx := context.Background()

	_, build := recorder.Record(ctx, "build")
	_, gen := recorder.Record(ctx, "gen")
	_, lint := recorder.Record(ctx, "lint")
	_, pending := recorder.Record(ctx, "pending")

	build.Complete(nil)
	gen.Cached()
	lint.Complete(errors.New("mypy found 3 errors"))
	_ = pending

	assert.Equal(t, []progrock.TargetStatus{
		{Name: "build", Status: domain.VertexStatusCompleted},
		{Name: "gen", Status: domain.VertexStatusCached},
		{Name: "lint", Status: domain.VertexStatusFailed, Error: "mypy found 3 errors"},
		{Name: "pending", Status: domain.VertexStatusRunning},
	}, summary.Statuses())

	require.NoError(t, recorder.Close())
	assert.Equal(t, "✓ build\n"+
		"• gen\n"+
		"✗ lint: mypy found 3 errors\n"+
		"… pending\n"+
		"4 targets: 1 built, 1 up to date, 1 failed\n", buf.String())

	// Closing twice prints nothing more.
	require.NoError(t, summary.Close())
	assert.Equal(t, 5, bytes.Count(buf.Bytes(), []byte("\n")))
}
