package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ExitError reports an external process that started but exited with a non-zero status.
type ExitError struct {
	Args []string
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", strings.Join(e.Args, " "), e.Code)
}

// BenignError is an expected failure that aborts the target that raised it and everything
// depending on it, but does not warrant a crash report. The CLI prints it on one line.
type BenignError struct {
	Target   string
	Command  []string
	ExitCode int
	Err      error
}

// Error implements the error interface.
func (e *BenignError) Error() string {
	return fmt.Sprintf("target %q: command %q exited with status %d",
		e.Target, strings.Join(e.Command, " "), e.ExitCode)
}

// Unwrap returns the underlying process error.
func (e *BenignError) Unwrap() error {
	return e.Err
}

// IsBenign reports whether err, or any error it wraps, is a *BenignError.
func IsBenign(err error) bool {
	var benign *BenignError
	return errors.As(err, &benign)
}
