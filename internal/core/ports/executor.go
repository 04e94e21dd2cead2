// Package ports defines the core interfaces for the application.
package ports

import "context"

// Executor defines the interface for running external processes.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs args[0] with the remaining arguments and blocks until it exits.
	//
	// The env parameter holds "KEY=VALUE" entries and replaces the process environment;
	// a nil env inherits the environment of the current process.
	//
	// A process that exits non-zero yields an error wrapping *domain.ExitError.
	// Any other error means the process could not be run at all.
	Execute(ctx context.Context, args []string, env []string) error
}
