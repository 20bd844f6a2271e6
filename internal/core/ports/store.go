package ports

import (
	"context"

	"go.trai.ch/stashsync/internal/core/domain"
)

// SnapshotStore persists the dehydrated cache between runs.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type SnapshotStore interface {
	// Load returns the last saved snapshot.
	// Returns nil, nil if nothing was saved yet.
	Load(ctx context.Context) (*domain.CacheSnapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snapshot *domain.CacheSnapshot) error

	// Close releases backend resources.
	Close() error
}
