package querycache

import (
	"context"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/zerr"
)

// fetch loads key from upstream. Concurrent fetches of one key share a single
// upstream call; ctx only bounds how long this caller waits for it.
func (c *Controller) fetch(ctx context.Context, key domain.CacheKey) (any, error) {
	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.load(key)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Controller) load(key domain.CacheKey) (any, error) {
	c.mu.Lock()
	e := c.entry(key)
	gen := e.generation
	fctx, cancel := context.WithCancel(c.base)
	handle := &fetchHandle{cancel: cancel}
	e.inflight = handle
	c.mu.Unlock()
	defer cancel()

	fctx, span := c.tracer.Start(fctx, "fetch", ports.WithAttribute("key", key.String()))
	defer span.End()

	value, err := c.upstream.Fetch(fctx, key)

	c.mu.Lock()
	if e.inflight == handle {
		e.inflight = nil
	}
	if e.generation != gen || c.entries[key] != e {
		c.mu.Unlock()
		span.SetAttribute("discarded", true)
		c.logger.Debug("fetch result discarded", "key", key.String())
		return nil, domain.ErrFetchCancelled
	}
	if err != nil {
		c.mu.Unlock()
		span.RecordError(err)
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "key", key.String())
	}
	stored, listeners := c.store(e, value)
	c.mu.Unlock()

	notify(listeners, stored)
	return stored, nil
}
