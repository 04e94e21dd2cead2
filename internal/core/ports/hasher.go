package ports

import "context"

// Hasher defines the interface for computing content digests.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// DigestFiles computes a single digest over the content of the given files, in order.
	DigestFiles(ctx context.Context, paths []string) (string, error)
}
