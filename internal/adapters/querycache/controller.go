// Package querycache is the in-process query cache: entries keyed by resource
// variant, fetched from upstream on demand, invalidated by the dispatcher and
// edited speculatively by the mutation protocol.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

// Catalog is the slice of the registry the controller needs.
type Catalog interface {
	Config(r domain.ResourceName) (domain.ResourceConfig, bool)
	PollConfig() domain.PollConfig
}

// Transform rewrites every value before it is stored.
type Transform func(value any, asOf domain.Date) any

type fetchHandle struct {
	cancel context.CancelFunc
}

type entry struct {
	value       any
	hasValue    bool
	fingerprint uint64
	fetchedAt   time.Time
	stale       bool
	lastAccess  time.Time
	generation  uint64
	inflight    *fetchHandle
	listeners   map[int]func(any)
}

// EntryInfo describes a cache entry.
type EntryInfo struct {
	Key         domain.CacheKey
	FetchedAt   time.Time
	Stale       bool
	Fresh       bool
	Subscribers int
}

// Controller is the query cache. It is safe for concurrent use.
type Controller struct {
	mu        sync.Mutex
	entries   map[domain.CacheKey]*entry
	nextID    int
	group     singleflight.Group
	catalog   Catalog
	upstream  ports.Upstream
	tracer    ports.Tracer
	logger    ports.Logger
	transform Transform
	now       func() time.Time

	pollInterval time.Duration
	gcInterval   time.Duration
	intervalCh   chan struct{}

	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	loopWG sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTransform sets the function applied to every stored value.
func WithTransform(t Transform) Option {
	return func(c *Controller) { c.transform = t }
}

// WithGCInterval sets how often unused entries are swept.
func WithGCInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.gcInterval = d
		}
	}
}

// WithPollInterval overrides the declared poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// New creates a Controller.
func New(
	catalog Catalog,
	upstream ports.Upstream,
	tracer ports.Tracer,
	logger ports.Logger,
	opts ...Option,
) *Controller {
	base, stop := context.WithCancel(context.Background())
	c := &Controller{
		entries:      make(map[domain.CacheKey]*entry),
		catalog:      catalog,
		upstream:     upstream,
		tracer:       tracer,
		logger:       logger,
		transform:    func(v any, _ domain.Date) any { return v },
		now:          time.Now,
		pollInterval: catalog.PollConfig().Interval,
		gcInterval:   domain.DefaultGCInterval,
		intervalCh:   make(chan struct{}, 1),
		base:         base,
		stop:         stop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key.
func (c *Controller) Get(key domain.CacheKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.hasValue {
		return nil, false
	}
	e.lastAccess = c.now()
	return e.value, true
}

// Set stores value for key after transforming it. Fetches that started before
// the call are discarded when they complete.
func (c *Controller) Set(key domain.CacheKey, value any) {
	c.mu.Lock()
	e := c.entry(key)
	e.generation++
	stored, listeners := c.store(e, value)
	c.mu.Unlock()

	notify(listeners, stored)
}

// Cancel aborts in-flight fetches of every entry matched by key.
func (c *Controller) Cancel(ctx context.Context, key domain.CacheKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if key.Matches(k) {
			c.abandon(k, e)
		}
	}
	return nil
}

// Invalidate marks every entry matched by key as stale. With RefetchNow,
// entries that have subscribers are refetched in the background and any fetch
// already in flight for them is abandoned.
func (c *Controller) Invalidate(key domain.CacheKey, opts ports.InvalidateOptions) {
	c.mu.Lock()
	var refetch []domain.CacheKey
	for k, e := range c.entries {
		if !key.Matches(k) {
			continue
		}
		e.stale = true
		if opts.RefetchNow && len(e.listeners) > 0 {
			c.abandon(k, e)
			refetch = append(refetch, k)
		}
	}
	c.mu.Unlock()

	if c.base.Err() != nil {
		return
	}
	for _, k := range refetch {
		c.wg.Go(func() {
			if _, err := c.fetch(c.base, k); err != nil && !errors.Is(err, domain.ErrFetchCancelled) {
				c.logger.Warn("background refetch failed", "key", k.String(), "error", err.Error())
			}
		})
	}
}

// Ensure returns the value of key, fetching it when the cached value is
// missing, stale or past its freshness window. When the fetch is cancelled by
// a mutation, the speculative value is returned instead.
func (c *Controller) Ensure(ctx context.Context, key domain.CacheKey) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.hasValue && c.fresh(key, e) {
		e.lastAccess = c.now()
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := c.fetch(ctx, key)
	if errors.Is(err, domain.ErrFetchCancelled) {
		if cached, ok := c.Get(key); ok {
			return cached, nil
		}
	}
	return v, err
}

// Subscribe registers fn to be called with every new value of key.
// Entries with subscribers are never evicted and take part in polling.
func (c *Controller) Subscribe(key domain.CacheKey, fn func(any)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(key)
	id := c.nextID
	c.nextID++
	e.listeners[id] = fn

	return sync.OnceFunc(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(e.listeners, id)
		e.lastAccess = c.now()
	})
}

// IsFresh reports whether key holds a value inside its freshness window.
func (c *Controller) IsFresh(key domain.CacheKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && e.hasValue && c.fresh(key, e)
}

// Entries describes every entry, sorted by key.
func (c *Controller) Entries() []EntryInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]EntryInfo, 0, len(c.entries))
	for k, e := range c.entries {
		infos = append(infos, EntryInfo{
			Key:         k,
			FetchedAt:   e.fetchedAt,
			Stale:       e.stale,
			Fresh:       e.hasValue && c.fresh(k, e),
			Subscribers: len(e.listeners),
		})
	}
	slices.SortFunc(infos, func(a, b EntryInfo) int {
		switch {
		case a.Key.String() < b.Key.String():
			return -1
		case a.Key.String() > b.Key.String():
			return 1
		default:
			return 0
		}
	})
	return infos
}

// abandon makes the in-flight fetch of e, if any, discard its result and
// detaches it from singleflight so the next fetch calls upstream again.
// Callers hold c.mu.
func (c *Controller) abandon(k domain.CacheKey, e *entry) {
	e.generation++
	if e.inflight != nil {
		e.inflight.cancel()
		e.inflight = nil
	}
	c.group.Forget(k.String())
}

func (c *Controller) entry(key domain.CacheKey) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{lastAccess: c.now(), listeners: make(map[int]func(any))}
		c.entries[key] = e
	}
	return e
}

// store transforms and saves value. An unchanged fingerprint keeps the previous
// value, and no listeners are returned.
func (c *Controller) store(e *entry, value any) (any, []func(any)) {
	now := c.now()
	v := c.transform(value, domain.DateOf(now))
	fp, ok := fingerprint(v)

	e.fetchedAt = now
	e.lastAccess = now
	e.stale = false
	if ok && e.hasValue && fp == e.fingerprint {
		return e.value, nil
	}

	e.value = v
	e.hasValue = true
	e.fingerprint = fp

	listeners := make([]func(any), 0, len(e.listeners))
	for _, fn := range e.listeners {
		listeners = append(listeners, fn)
	}
	return v, listeners
}

func (c *Controller) fresh(key domain.CacheKey, e *entry) bool {
	if e.stale {
		return false
	}
	cfg, ok := c.catalog.Config(key.Resource)
	if !ok {
		return false
	}
	return c.now().Sub(e.fetchedAt) < cfg.FreshnessWindow
}

func (c *Controller) retention(r domain.ResourceName) time.Duration {
	cfg, ok := c.catalog.Config(r)
	if !ok {
		return domain.DefaultRetention
	}
	return cfg.Retention()
}

func notify(listeners []func(any), value any) {
	for _, fn := range listeners {
		fn(value)
	}
}

func fingerprint(v any) (uint64, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(data), true
}
