// Package app implements the application layer for stashsync: the write
// operations of the dashboard, page loading, manual refresh and the cache
// lifecycle.
package app

import (
	"context"
	"iter"
	"time"

	"go.trai.ch/stashsync/internal/adapters/declarations" //nolint:depguard // Declarations are validated from the CLI
	"go.trai.ch/stashsync/internal/adapters/querycache"   //nolint:depguard // App drives the live cache
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/stashsync/internal/engine/dispatcher"
	"go.trai.ch/stashsync/internal/engine/mutation"
	"go.trai.ch/stashsync/internal/engine/registry"
)

// EntryInfo describes a cache entry.
type EntryInfo = querycache.EntryInfo

// ConfigWatcher reports edits of the config file.
type ConfigWatcher interface {
	Start(ctx context.Context, path string) error
	Changes() iter.Seq[string]
	Stop() error
}

// App represents the main application logic.
type App struct {
	registry   *registry.Registry
	cache      *querycache.Controller
	dispatcher *dispatcher.Dispatcher
	protocol   *mutation.Protocol
	upstream   ports.Upstream
	store      ports.SnapshotStore
	loader     ports.ConfigLoader
	watcher    ConfigWatcher
	logger     ports.Logger
	now        func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new App instance.
func New(
	reg *registry.Registry,
	cache *querycache.Controller,
	disp *dispatcher.Dispatcher,
	protocol *mutation.Protocol,
	upstream ports.Upstream,
	store ports.SnapshotStore,
	log ports.Logger,
) *App {
	return &App{
		registry:   reg,
		cache:      cache,
		dispatcher: disp,
		protocol:   protocol,
		upstream:   upstream,
		store:      store,
		logger:     log,
		now:        time.Now,
	}
}

// WithConfigWatcher makes Start follow edits of the config file and apply a
// changed poll interval to the running cache.
func (a *App) WithConfigWatcher(loader ports.ConfigLoader, w ConfigWatcher) *App {
	a.loader = loader
	a.watcher = w
	return a
}

// WithClock sets the time source used to pick the current month.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// Registry returns the dependency registry.
func (a *App) Registry() *registry.Registry { return a.registry }

// Cache returns the live cache.
func (a *App) Cache() *querycache.Controller { return a.cache }

// Upstream returns the remote collaborator.
func (a *App) Upstream() ports.Upstream { return a.upstream }

// Entries describes every cache entry, sorted by key.
func (a *App) Entries() []EntryInfo { return a.cache.Entries() }

// ValidateDeclarations runs the closed-world checks against the declaration
// at path, or against the loaded one when path is empty.
func (a *App) ValidateDeclarations(path string) (*domain.Declarations, error) {
	if path == "" {
		decl := a.registry.Declarations()
		return decl, registry.Validate(decl)
	}
	decl, err := declarations.NewFileLoader(path).Load()
	if err != nil {
		return nil, err
	}
	return decl, registry.Validate(decl)
}

// Pending reports how many cache keys have a write in flight or queued.
func (a *App) Pending() int { return a.protocol.Pending() }

// Refresh runs a manual refresh from page and returns the scope it covered.
func (a *App) Refresh(ctx context.Context, page domain.PageName) domain.SyncScope {
	return a.dispatcher.Refresh(ctx, page)
}

// keyFor returns the key a page reads resource r under. Month notes are
// addressed by the current month.
func (a *App) keyFor(r domain.ResourceName) domain.CacheKey {
	if r == domain.ResourceMonthNotes {
		return monthNoteKey(domain.DateOf(a.now()).MonthKey())
	}
	return domain.ResourceKey(r)
}

func monthNoteKey(month string) domain.CacheKey {
	return domain.NewCacheKey(domain.ResourceMonthNotes, map[string]string{"month": month})
}
