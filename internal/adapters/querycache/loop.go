package querycache

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// MaxPollInterval is the longest accepted poll interval.
const MaxPollInterval = 10 * time.Minute

// Start runs the poll and retention loops until Stop is called or ctx is done.
func (c *Controller) Start(ctx context.Context) {
	c.loopWG.Go(func() {
		c.run(ctx)
	})
}

// Stop ends the loops, cancels in-flight fetches and waits for background work.
func (c *Controller) Stop() {
	c.stop()
	c.loopWG.Wait()
	c.wg.Wait()
}

// PollInterval returns the current poll interval.
func (c *Controller) PollInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pollInterval
}

// SetPollInterval changes the poll interval of the running loop.
func (c *Controller) SetPollInterval(d time.Duration) error {
	if d <= 0 || d > MaxPollInterval {
		return zerr.With(domain.ErrInvalidPollInterval, "interval", d.String())
	}

	c.mu.Lock()
	changed := c.pollInterval != d
	c.pollInterval = d
	c.mu.Unlock()

	if changed {
		select {
		case c.intervalCh <- struct{}{}:
		default:
		}
	}
	return nil
}

func (c *Controller) run(ctx context.Context) {
	poll := time.NewTicker(c.PollInterval())
	defer poll.Stop()
	gc := time.NewTicker(c.gcInterval)
	defer gc.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.base.Done():
			return
		case <-c.intervalCh:
			d := c.PollInterval()
			poll.Reset(d)
			c.logger.Debug("poll interval changed", "interval", d.String())
		case <-poll.C:
			c.Poll(ctx)
		case <-gc.C:
			if n := c.Collect(); n > 0 {
				c.logger.Debug("evicted unused entries", "count", n)
			}
		}
	}
}

// Poll refetches every subscribed entry of a pollable resource and returns how
// many were refreshed.
func (c *Controller) Poll(ctx context.Context) int {
	pollable := c.catalog.PollConfig().PollableResources

	c.mu.Lock()
	var keys []domain.CacheKey
	for k, e := range c.entries {
		if len(e.listeners) > 0 && slices.Contains(pollable, k.Resource) {
			keys = append(keys, k)
		}
	}
	c.mu.Unlock()

	var g errgroup.Group
	refreshed := make([]bool, len(keys))
	for i, k := range keys {
		g.Go(func() error {
			_, err := c.fetch(ctx, k)
			switch {
			case err == nil:
				refreshed[i] = true
			case errors.Is(err, domain.ErrFetchCancelled):
			default:
				c.logger.Warn("poll failed", "key", k.String(), "error", err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range refreshed {
		if ok {
			n++
		}
	}
	return n
}

// Collect evicts entries without subscribers or in-flight fetches that have not
// been used for their retention window, and returns how many were evicted.
func (c *Controller) Collect() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if len(e.listeners) > 0 || e.inflight != nil {
			continue
		}
		if now.Sub(e.lastAccess) < c.retention(k.Resource) {
			continue
		}
		delete(c.entries, k)
		n++
	}
	return n
}
