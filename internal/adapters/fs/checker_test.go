package fs_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/fs"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// touch creates path with the given modification time, offset from base.
func touch(t *testing.T, path string, offset time.Duration) string {
	t.Helper()
	writeFile(t, path, filepath.Base(path))
	mtime := base.Add(offset)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestMTimeChecker_IsStale(t *testing.T) {
	dir := t.TempDir()
	older := touch(t, filepath.Join(dir, "older"), 0)
	newer := touch(t, filepath.Join(dir, "newer"), time.Minute)
	tie := touch(t, filepath.Join(dir, "tie"), time.Minute)
	missing := filepath.Join(dir, "missing")

	tests := []struct {
		name    string
		inputs  []string
		outputs []string
		force   bool
		want    bool
	}{
		{name: "input newer than output", inputs: []string{newer}, outputs: []string{older}, want: true},
		{name: "output newer than input", inputs: []string{older}, outputs: []string{newer}, want: false},
		{name: "equal timestamps are not stale", inputs: []string{tie}, outputs: []string{newer}, want: false},
		{name: "newest output wins", inputs: []string{tie}, outputs: []string{older, newer}, want: false},
		{name: "newest input wins", inputs: []string{older, newer}, outputs: []string{older}, want: true},
		{name: "missing output", inputs: []string{older}, outputs: []string{newer, missing}, want: true},
		{name: "missing output without inputs", outputs: []string{missing}, want: true},
		{name: "no inputs", outputs: []string{older}, want: false},
		{name: "no outputs", inputs: []string{older}, want: true},
		{name: "nothing declared", want: false},
		{name: "force", inputs: []string{older}, outputs: []string{newer}, force: true, want: true},
		{name: "force ignores missing input", inputs: []string{missing}, force: true, want: true},
	}

	checker := fs.NewMTimeChecker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.IsStale(tt.inputs, tt.outputs, tt.force)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := checker.IsStale(tt.inputs, tt.outputs, tt.force)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestMTimeChecker_IsStale_MissingInput(t *testing.T) {
	dir := t.TempDir()
	out := touch(t, filepath.Join(dir, "out"), 0)
	missing := filepath.Join(dir, "missing.c")

	_, err := fs.NewMTimeChecker().IsStale([]string{missing}, []string{out}, false)
	require.ErrorIs(t, err, domain.ErrInputNotFound)

	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	assert.Equal(t, missing, zErr.Metadata()["path"])
}

func TestMTimeChecker_IsStale_RewrittenOutput(t *testing.T) {
	dir := t.TempDir()
	in := touch(t, filepath.Join(dir, "in"), time.Minute)
	out := touch(t, filepath.Join(dir, "out"), 0)

	checker := fs.NewMTimeChecker()
	stale, err := checker.IsStale([]string{in}, []string{out}, false)
	require.NoError(t, err)
	assert.True(t, stale)

	touch(t, out, time.Minute)
	stale, err = checker.IsStale([]string{in}, []string{out}, false)
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestMTimeChecker_OutputsExist(t *testing.T) {
	dir := t.TempDir()
	out1 := touch(t, filepath.Join(dir, "out1.txt"), 0)
	out2 := touch(t, filepath.Join(dir, "out2.txt"), 0)
	checker := fs.NewMTimeChecker()

	exists, err := checker.OutputsExist([]string{out1, out2})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = checker.OutputsExist([]string{out1, filepath.Join(dir, "missing.txt")})
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = checker.OutputsExist(nil)
	require.NoError(t, err)
	assert.True(t, exists)
}
