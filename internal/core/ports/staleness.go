package ports

// StalenessChecker decides whether outputs are outdated relative to their inputs.
//
//go:generate go run go.uber.org/mock/mockgen -source=staleness.go -destination=mocks/mock_staleness.go -package=mocks
type StalenessChecker interface {
	// IsStale reports whether any input is strictly newer than the newest output.
	// It always returns true when force is set or an output does not exist.
	// A missing input is an error.
	IsStale(inputs, outputs []string, force bool) (bool, error)

	// OutputsExist reports whether every output path exists.
	OutputsExist(outputs []string) (bool, error)
}
