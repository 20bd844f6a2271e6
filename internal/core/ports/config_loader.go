package ports

import "go.trai.ch/stashsync/internal/core/domain"

// ConfigLoader defines the interface for loading the runtime configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load searches cwd and its parents for the config file.
	// It returns the defaults when no file is found.
	Load(cwd string) (*domain.Config, error)
}

// DeclarationLoader defines the interface for loading the registry declaration.
type DeclarationLoader interface {
	// Load returns the declaration, shape-checked but not yet closed-world validated.
	Load() (*domain.Declarations, error)
}
