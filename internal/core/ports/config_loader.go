package ports

import "go.trai.ch/forge/internal/core/domain"

// ConfigLoader defines the interface for loading declarative target definitions.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration file at path and returns its targets sorted by name.
	Load(path string) ([]domain.TargetSpec, error)
}
