// Package shell provides the process executor adapter.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewExecutor creates a new Executor writing process output to stdout and stderr.
// Nil writers default to the ones of the current process.
func NewExecutor(logger ports.Logger, stdout, stderr io.Writer) *Executor {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Executor{
		logger: logger,
		stdout: stdout,
		stderr: stderr,
	}
}

// Execute runs args[0] with the remaining arguments and waits for it to exit.
// A nil env inherits the environment of the current process; otherwise env is used as is
// and the executable is looked up on its PATH.
// When ctx carries a telemetry vertex, output is copied to it as well.
func (e *Executor) Execute(ctx context.Context, args []string, env []string) error {
	if len(args) == 0 {
		return zerr.Wrap(domain.ErrEmptyCommand, "failed to execute command")
	}

	name := args[0]
	if env == nil {
		env = os.Environ()
	}

	executable := name
	if !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, args[1:]...) //nolint:gosec // user provided command
	// exec.CommandContext sets Args[0] to the executable path; keep the name as invoked.
	cmd.Args[0] = name
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	if v, ok := ports.VertexFromContext(ctx); ok {
		cmd.Stdout = io.MultiWriter(e.stdout, v.Stdout())
		cmd.Stderr = io.MultiWriter(e.stderr, v.Stderr())
	}

	e.logger.Debug("exec: " + strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			cause := &domain.ExitError{Args: append([]string(nil), args...), Code: code}
			return zerr.With(zerr.Wrap(cause, "command failed"), "exit_code", code)
		}
		return zerr.With(zerr.Wrap(err, "failed to start command"), "command", name)
	}
	return nil
}

// lookPath searches for an executable in the directories named by the PATH variable of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
