// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/stashsync/internal/core/domain"
)

// InvalidateOptions controls what happens to an invalidated entry.
type InvalidateOptions struct {
	// RefetchNow refetches the entry immediately when it has active subscribers.
	// When false the entry is only marked stale and the next reader fetches it.
	RefetchNow bool
}

// CacheController is the slice of the query cache used by the dispatcher
// and the mutation protocol.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type CacheController interface {
	// Cancel aborts in-flight fetches for every entry matched by key.
	// Results of cancelled fetches are discarded.
	Cancel(ctx context.Context, key domain.CacheKey) error

	// Get returns the cached value for key.
	Get(key domain.CacheKey) (any, bool)

	// Set stores value for key. The stored value is recomputed before it becomes visible.
	Set(key domain.CacheKey, value any)

	// Invalidate marks every entry matched by key as stale.
	Invalidate(key domain.CacheKey, opts InvalidateOptions)
}

// Upstream is the remote financial aggregator.
type Upstream interface {
	// Fetch reads the value of a resource variant.
	Fetch(ctx context.Context, key domain.CacheKey) (any, error)

	// Write applies a write operation and returns its payload.
	Write(ctx context.Context, req domain.WriteRequest) (any, error)
}
