package mutation

import (
	"context"
	"slices"
	"sync"

	"go.trai.ch/stashsync/internal/core/domain"
)

// KeyQueue serializes mutations per cache key. Waiters on a key are served in
// arrival order, and multi-key acquisitions take keys in sorted order so that
// two mutations never wait on each other.
type KeyQueue struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

// NewKeyQueue creates an empty KeyQueue.
func NewKeyQueue() *KeyQueue {
	return &KeyQueue{tails: make(map[string]chan struct{})}
}

// Acquire blocks until the caller holds every key, or ctx is done.
// The returned release function is idempotent.
func (q *KeyQueue) Acquire(ctx context.Context, keys []domain.CacheKey) (func(), error) {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.String())
	}
	slices.Sort(names)
	names = slices.Compact(names)

	held := make([]func(), 0, len(names))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}

	for _, name := range names {
		prev, done := q.enqueue(name)
		if prev != nil {
			select {
			case <-prev:
			case <-ctx.Done():
				// Keep the chain intact: hand the slot to the next waiter once
				// the current holder lets go.
				go func() {
					<-prev
					q.release(name, done)
				}()
				releaseAll()
				return nil, ctx.Err()
			}
		}
		held = append(held, func() { q.release(name, done) })
	}

	return sync.OnceFunc(releaseAll), nil
}

// Pending reports how many keys currently have a holder or waiters.
func (q *KeyQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tails)
}

func (q *KeyQueue) enqueue(name string) (prev, done chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	prev = q.tails[name]
	done = make(chan struct{})
	q.tails[name] = done
	return prev, done
}

func (q *KeyQueue) release(name string, done chan struct{}) {
	q.mu.Lock()
	if q.tails[name] == done {
		delete(q.tails, name)
	}
	q.mu.Unlock()
	close(done)
}
