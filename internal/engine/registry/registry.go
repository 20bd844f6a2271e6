// Package registry holds the static resource catalog, effect registry and page map,
// and resolves write operations and pages to the resources they affect.
package registry

import (
	"maps"
	"slices"

	"go.trai.ch/stashsync/internal/core/domain"
)

// Registry is an immutable set of lookup tables built once at startup.
// All accessors are pure and safe for concurrent use.
type Registry struct {
	resources map[domain.ResourceName]domain.ResourceConfig
	effects   map[domain.WriteOperation]domain.EffectEntry
	pages     map[domain.PageName]domain.PageConfig
	polling   domain.PollConfig

	// fetchOrder holds, per resource, its transitive dependencies in topological order.
	fetchOrder map[domain.ResourceName][]domain.ResourceName
}

// New validates the declaration and builds a Registry from a deep copy of it.
func New(decl *domain.Declarations) (*Registry, error) {
	if err := Validate(decl); err != nil {
		return nil, err
	}

	r := &Registry{
		resources:  make(map[domain.ResourceName]domain.ResourceConfig, len(decl.Resources)),
		effects:    make(map[domain.WriteOperation]domain.EffectEntry, len(decl.Operations)),
		pages:      make(map[domain.PageName]domain.PageConfig, len(decl.Pages)),
		fetchOrder: make(map[domain.ResourceName][]domain.ResourceName, len(decl.Resources)),
		polling: domain.PollConfig{
			Interval:          decl.Polling.Interval,
			PollableResources: slices.Clone(decl.Polling.PollableResources),
		},
	}

	for name, cfg := range decl.Resources {
		cfg.DependsOn = slices.Clone(cfg.DependsOn)
		r.resources[name] = cfg
	}
	for op, entry := range decl.Operations {
		r.effects[op] = domain.EffectEntry{
			Invalidate: slices.Clone(entry.Invalidate),
			MarkStale:  slices.Clone(entry.MarkStale),
		}
	}
	for page, cfg := range decl.Pages {
		r.pages[page] = domain.PageConfig{
			Primary:    slices.Clone(cfg.Primary),
			Supporting: slices.Clone(cfg.Supporting),
			SyncScope:  cfg.SyncScope,
		}
	}
	for name := range r.resources {
		r.fetchOrder[name] = r.topoDependencies(name)
	}

	return r, nil
}

// topoDependencies returns the transitive dependencies of name, dependencies first.
// The declaration is known to be acyclic.
func (r *Registry) topoDependencies(name domain.ResourceName) []domain.ResourceName {
	var order []domain.ResourceName
	visited := make(map[domain.ResourceName]bool)

	var visit func(u domain.ResourceName)
	visit = func(u domain.ResourceName) {
		visited[u] = true
		for _, dep := range r.resources[u].DependsOn {
			if !visited[dep] {
				visit(dep)
			}
		}
		if u != name {
			order = append(order, u)
		}
	}
	visit(name)

	return order
}

func (r *Registry) lookupEffect(op domain.WriteOperation) domain.Lookup[domain.EffectEntry] {
	entry, ok := r.effects[op]
	if !ok {
		return domain.NotFound[domain.EffectEntry]()
	}
	return domain.Found(entry)
}

func (r *Registry) lookupPage(page domain.PageName) domain.Lookup[domain.PageConfig] {
	cfg, ok := r.pages[page]
	if !ok {
		return domain.NotFound[domain.PageConfig]()
	}
	return domain.Found(cfg)
}

func (r *Registry) lookupResource(name domain.ResourceName) domain.Lookup[domain.ResourceConfig] {
	cfg, ok := r.resources[name]
	if !ok {
		return domain.NotFound[domain.ResourceConfig]()
	}
	return domain.Found(cfg)
}

// InvalidationTargets returns the resources op invalidates immediately.
// Unknown operations invalidate nothing.
func (r *Registry) InvalidationTargets(op domain.WriteOperation) []domain.ResourceName {
	entry, ok := r.lookupEffect(op).Get()
	if !ok {
		return []domain.ResourceName{}
	}
	return slices.Clone(entry.Invalidate)
}

// StaleTargets returns the resources op marks stale without refetching.
// Unknown operations mark nothing.
func (r *Registry) StaleTargets(op domain.WriteOperation) []domain.ResourceName {
	entry, ok := r.lookupEffect(op).Get()
	if !ok {
		return []domain.ResourceName{}
	}
	return slices.Clone(entry.MarkStale)
}

// PrimaryResources returns the resources that block rendering of page.
func (r *Registry) PrimaryResources(page domain.PageName) []domain.ResourceName {
	cfg, ok := r.lookupPage(page).Get()
	if !ok {
		return []domain.ResourceName{}
	}
	return slices.Clone(cfg.Primary)
}

// SupportingResources returns the resources page renders progressively.
func (r *Registry) SupportingResources(page domain.PageName) []domain.ResourceName {
	cfg, ok := r.lookupPage(page).Get()
	if !ok {
		return []domain.ResourceName{}
	}
	return slices.Clone(cfg.Supporting)
}

// AllResources returns the primary resources of page followed by its supporting ones.
func (r *Registry) AllResources(page domain.PageName) []domain.ResourceName {
	cfg, ok := r.lookupPage(page).Get()
	if !ok {
		return []domain.ResourceName{}
	}
	return slices.Concat(cfg.Primary, cfg.Supporting)
}

// SyncScope returns the refresh scope of page.
// Unknown pages get the full scope: under-refreshing would hide stale data.
func (r *Registry) SyncScope(page domain.PageName) domain.SyncScope {
	cfg, ok := r.lookupPage(page).Get()
	if !ok {
		return domain.ScopeFull
	}
	return cfg.SyncScope
}

// IsPollable reports whether resource takes part in periodic polling.
func (r *Registry) IsPollable(resource domain.ResourceName) bool {
	return r.lookupResource(resource).OrElse(domain.ResourceConfig{}).Pollable
}

// Config returns the config of resource.
func (r *Registry) Config(resource domain.ResourceName) (domain.ResourceConfig, bool) {
	cfg, ok := r.lookupResource(resource).Get()
	if ok {
		cfg.DependsOn = slices.Clone(cfg.DependsOn)
	}
	return cfg, ok
}

// Dependencies returns the transitive dependencies of resource, dependencies first.
func (r *Registry) Dependencies(resource domain.ResourceName) []domain.ResourceName {
	return slices.Clone(r.fetchOrder[resource])
}

// ScopeResources returns the resources refreshed by a sync of the given scope.
// The full scope, and any unknown scope, covers every resource.
func (r *Registry) ScopeResources(scope domain.SyncScope) []domain.ResourceName {
	if scope == domain.ScopeFull || !scope.Valid() {
		return r.Resources()
	}

	seen := make(map[domain.ResourceName]bool)
	var out []domain.ResourceName
	for _, page := range r.Pages() {
		cfg := r.pages[page]
		if cfg.SyncScope != scope {
			continue
		}
		for _, name := range slices.Concat(cfg.Primary, cfg.Supporting) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// PollConfig returns the polling configuration.
func (r *Registry) PollConfig() domain.PollConfig {
	return domain.PollConfig{
		Interval:          r.polling.Interval,
		PollableResources: slices.Clone(r.polling.PollableResources),
	}
}

// Resources returns every cataloged resource in declaration order.
func (r *Registry) Resources() []domain.ResourceName {
	return slices.DeleteFunc(domain.AllResources(), func(name domain.ResourceName) bool {
		_, ok := r.resources[name]
		return !ok
	})
}

// Operations returns every registered write operation in declaration order.
func (r *Registry) Operations() []domain.WriteOperation {
	return slices.DeleteFunc(domain.AllOperations(), func(op domain.WriteOperation) bool {
		_, ok := r.effects[op]
		return !ok
	})
}

// Pages returns every mapped page in declaration order.
func (r *Registry) Pages() []domain.PageName {
	return slices.DeleteFunc(domain.AllPages(), func(page domain.PageName) bool {
		_, ok := r.pages[page]
		return !ok
	})
}

// Declarations returns a deep copy of the tables backing the registry.
func (r *Registry) Declarations() *domain.Declarations {
	decl := &domain.Declarations{
		Resources:  maps.Clone(r.resources),
		Operations: maps.Clone(r.effects),
		Pages:      maps.Clone(r.pages),
		Polling:    r.PollConfig(),
	}
	for name, cfg := range decl.Resources {
		cfg.DependsOn = slices.Clone(cfg.DependsOn)
		decl.Resources[name] = cfg
	}
	for op, entry := range decl.Operations {
		decl.Operations[op] = domain.EffectEntry{
			Invalidate: slices.Clone(entry.Invalidate),
			MarkStale:  slices.Clone(entry.MarkStale),
		}
	}
	for page, cfg := range decl.Pages {
		decl.Pages[page] = domain.PageConfig{
			Primary:    slices.Clone(cfg.Primary),
			Supporting: slices.Clone(cfg.Supporting),
			SyncScope:  cfg.SyncScope,
		}
	}
	return decl
}
