// Package dispatcher applies the effects of write operations and manual refreshes
// to the cache controller.
package dispatcher

import (
	"context"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
)

// Resolver resolves operations and pages to resources.
type Resolver interface {
	InvalidationTargets(op domain.WriteOperation) []domain.ResourceName
	StaleTargets(op domain.WriteOperation) []domain.ResourceName
	SyncScope(page domain.PageName) domain.SyncScope
	ScopeResources(scope domain.SyncScope) []domain.ResourceName
}

// Dispatcher invalidates cache entries according to the effect registry.
type Dispatcher struct {
	resolver Resolver
	cache    ports.CacheController
	tracer   ports.Tracer
	logger   ports.Logger
}

// New creates a new Dispatcher.
func New(resolver Resolver, cache ports.CacheController, tracer ports.Tracer, logger ports.Logger) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		cache:    cache,
		tracer:   tracer,
		logger:   logger,
	}
}

// Dispatch applies the effects of a settled write operation. Resources in the
// invalidate list are refetched at once when observed; resources in the stale
// list are only marked. Unknown operations dispatch nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, op domain.WriteOperation) {
	invalidate := d.resolver.InvalidationTargets(op)
	stale := d.resolver.StaleTargets(op)

	_, span := d.tracer.Start(ctx, "dispatch", ports.WithAttribute("operation", op.String()))
	defer span.End()
	span.SetAttribute("invalidate", len(invalidate))
	span.SetAttribute("stale", len(stale))

	for _, r := range invalidate {
		d.cache.Invalidate(domain.ResourceKey(r), ports.InvalidateOptions{RefetchNow: true})
	}
	for _, r := range stale {
		d.cache.Invalidate(domain.ResourceKey(r), ports.InvalidateOptions{RefetchNow: false})
	}

	d.logger.Debug("dispatched", "operation", op.String(), "invalidate", len(invalidate), "stale", len(stale))
}

// Refresh invalidates, with refetch, every resource in the sync scope of page.
// Unknown pages refresh everything.
func (d *Dispatcher) Refresh(ctx context.Context, page domain.PageName) domain.SyncScope {
	scope := d.resolver.SyncScope(page)
	resources := d.resolver.ScopeResources(scope)

	_, span := d.tracer.Start(ctx, "refresh",
		ports.WithAttribute("page", page.String()),
		ports.WithAttribute("scope", string(scope)),
	)
	defer span.End()

	for _, r := range resources {
		d.cache.Invalidate(domain.ResourceKey(r), ports.InvalidateOptions{RefetchNow: true})
	}

	d.logger.Debug("refreshed", "page", page.String(), "scope", string(scope), "resources", len(resources))
	return scope
}
