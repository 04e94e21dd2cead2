package ports

import "go.trai.ch/forge/internal/core/domain"

// StateStore defines the interface for persisting digests of successful target builds.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type StateStore interface {
	// Get retrieves the state recorded under key.
	// Returns nil, nil if not found.
	Get(key string) (*domain.TargetState, error)

	// Put stores the state under its key.
	Put(state domain.TargetState) error
}
