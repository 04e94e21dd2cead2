package cli_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/cli"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type call struct {
	method string
	names  []string
	opts   app.RunOptions
}

type mockApp struct {
	targets []domain.TargetInfo
	err     error
	calls   []call
}

func (m *mockApp) Targets() []domain.TargetInfo {
	return m.targets
}

func (m *mockApp) Run(_ context.Context, names []string, opts app.RunOptions) error {
	m.calls = append(m.calls, call{method: "run", names: names, opts: opts})
	return m.err
}

func (m *mockApp) Watch(_ context.Context, names []string, opts app.RunOptions) error {
	m.calls = append(m.calls, call{method: "watch", names: names, opts: opts})
	return m.err
}

type logSettings struct {
	verbose bool
	json    bool
}

func (l *logSettings) SetVerbose(verbose bool) { l.verbose = verbose }
func (l *logSettings) SetJSON(enable bool)     { l.json = enable }

func execute(t *testing.T, c *cli.CLI, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c.SetOutput(&stdout, &stderr)
	if args == nil {
		// cobra falls back to os.Args for nil.
		args = []string{}
	}
	c.SetArgs(args)
	err := c.Execute(context.Background())
	return stdout.String(), stderr.String(), err
}

var sampleTargets = []domain.TargetInfo{
	{Name: "build", Help: "Compile every package of the module into the bin directory"},
	{Name: "clean"},
	{Name: "lint", Help: "Run static analysis on all source files"},
}

func TestPrintTargets_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, cli.PrintTargets(&buf, sampleTargets, 42))

	g := goldie.New(t)
	g.Assert(t, "targets", buf.Bytes())
}

func TestCLI_Run(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		force   bool
		summary bool
	}{
		{name: "run command", args: []string{"run", "build", "lint"}, want: []string{"build", "lint"}},
		{name: "bare targets", args: []string{"lint", "build"}, want: []string{"lint", "build"}},
		{name: "always make", args: []string{"-B", "build"}, want: []string{"build"}, force: true},
		{name: "long flags", args: []string{"run", "--always-make", "--summary", "build"}, want: []string{"build"}, force: true, summary: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockApp{}
			_, _, err := execute(t, cli.New(m), tt.args...)
			require.NoError(t, err)

			require.Len(t, m.calls, 1)
			assert.Equal(t, "run", m.calls[0].method)
			assert.Equal(t, tt.want, m.calls[0].names)
			assert.Equal(t, tt.force, m.calls[0].opts.Force)
			assert.Equal(t, tt.summary, m.calls[0].opts.Summary != nil)
		})
	}
}

func TestCLI_NothingToDo(t *testing.T) {
	for _, args := range [][]string{nil, {"run"}, {"watch"}} {
		m := &mockApp{}
		_, stderr, err := execute(t, cli.New(m), args...)
		require.NoError(t, err)
		assert.Equal(t, "Nothing to do.  (Use --help for usage information)\n", stderr)
		assert.Empty(t, m.calls)
	}
}

func TestCLI_RunError(t *testing.T) {
	m := &mockApp{err: &domain.BenignError{Target: "lint", Command: []string{"mypy"}, ExitCode: 1}}
	_, _, err := execute(t, cli.New(m), "lint")
	require.Error(t, err)
	assert.True(t, domain.IsBenign(err))
}

func TestCLI_Watch(t *testing.T) {
	m := &mockApp{}
	_, _, err := execute(t, cli.New(m), "watch", "-B", "build")
	require.NoError(t, err)

	require.Len(t, m.calls, 1)
	assert.Equal(t, call{method: "watch", names: []string{"build"}, opts: app.RunOptions{Force: true}}, m.calls[0])
}

func TestCLI_Targets(t *testing.T) {
	for _, args := range [][]string{{"targets"}, {"--print-targets"}} {
		m := &mockApp{targets: sampleTargets[1:2]}
		stdout, _, err := execute(t, cli.New(m), args...)
		require.NoError(t, err)
		assert.Equal(t, "clean\n    (No help message)\n\n", stdout)
		assert.Empty(t, m.calls)
	}
}

func TestCLI_Config(t *testing.T) {
	var loaded []string
	load := func(path string) error {
		loaded = append(loaded, path)
		if path == "broken.yaml" {
			return domain.ErrInvalidConfig
		}
		return nil
	}

	m := &mockApp{}
	_, _, err := execute(t, cli.New(m, cli.WithConfig("forge.yaml", load)), "run", "build")
	require.NoError(t, err)

	_, _, err = execute(t, cli.New(m, cli.WithConfig("forge.yaml", load)), "-c", "broken.yaml", "build")
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	assert.Equal(t, []string{"forge.yaml", "broken.yaml"}, loaded)
	assert.Len(t, m.calls, 1, "a failed load must not start a build")
}

func TestCLI_LogSettings(t *testing.T) {
	settings := &logSettings{}
	m := &mockApp{}
	_, _, err := execute(t, cli.New(m, cli.WithLogSettings(settings)), "-v", "--log-format", "json", "build")
	require.NoError(t, err)
	assert.True(t, settings.verbose)
	assert.True(t, settings.json)

	_, _, err = execute(t, cli.New(m, cli.WithLogSettings(settings)), "--log-format", "xml", "build")
	require.ErrorIs(t, err, domain.ErrInvalidLogFormat)
	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	assert.Equal(t, "xml", zErr.Metadata()["format"])
}

func TestCLI_Version(t *testing.T) {
	load := func(string) error { return errors.New("must not load configuration") }
	stdout, _, err := execute(t, cli.New(&mockApp{}, cli.WithName("make.go"), cli.WithConfig("forge.yaml", load)), "version")
	require.NoError(t, err)
	assert.Equal(t, "make.go version dev (commit: none, date: unknown)\n", stdout)
}

func TestCLI_ExitStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("success", func(t *testing.T) {
		c := cli.New(&mockApp{})
		c.SetArgs([]string{"build"})
		assert.Equal(t, 0, c.Run(context.Background(), mocks.NewMockLogger(ctrl)))
	})

	t.Run("benign failure prints one line", func(t *testing.T) {
		var stderr bytes.Buffer
		c := cli.New(&mockApp{err: &domain.BenignError{Target: "lint", Command: []string{"mypy", "src"}, ExitCode: 1}})
		c.SetArgs([]string{"lint"})
		c.SetOutput(&bytes.Buffer{}, &stderr)

		assert.Equal(t, 1, c.Run(context.Background(), mocks.NewMockLogger(ctrl)))
		assert.Equal(t, "target \"lint\": command \"mypy src\" exited with status 1\n", stderr.String())
	})

	t.Run("fatal failure is logged", func(t *testing.T) {
		log := mocks.NewMockLogger(ctrl)
		log.EXPECT().Error(domain.ErrTargetNotFound)

		c := cli.New(&mockApp{err: domain.ErrTargetNotFound})
		c.SetArgs([]string{"missing"})
		assert.Equal(t, 1, c.Run(context.Background(), log))
	})
}
