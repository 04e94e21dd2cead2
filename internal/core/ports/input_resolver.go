package ports

// InputResolver expands declared input patterns into concrete file paths.
//
//go:generate go run go.uber.org/mock/mockgen -source=input_resolver.go -destination=mocks/mock_input_resolver.go -package=mocks
type InputResolver interface {
	// ResolveInputs expands each pattern relative to root. A pattern matching nothing is an error.
	ResolveInputs(patterns []string, root string) ([]string, error)
}
