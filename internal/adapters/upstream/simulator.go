// Package upstream provides an in-memory stand-in for the remote financial
// aggregator. It answers fetches and writes with configurable latency, can
// fail on demand, and reproduces the aggregator's stale reads of budget
// allocations right after a write.
package upstream

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/zerr"
)

// Writes whose effects the aggregator reads back late.
var staleWrites = map[domain.WriteOperation][]domain.ResourceName{
	domain.OpAllocateFunds:      {domain.ResourceStash, domain.ResourceAvailableToStash},
	domain.OpAllocateFundsBatch: {domain.ResourceStash, domain.ResourceAvailableToStash},
	domain.OpSetRecurringBudget: {domain.ResourceDashboard, domain.ResourceAvailableToStash},
}

type staleRead struct {
	value any
	until time.Time
}

type failure struct {
	err       error
	committed bool
}

// Simulator implements ports.Upstream on an in-memory State.
type Simulator struct {
	mu          sync.Mutex
	state       *State
	stale       map[domain.ResourceName]staleRead
	failures    map[domain.WriteOperation][]failure
	fetchErr    map[domain.ResourceName]error
	writes      []domain.WriteOperation
	fetches     int
	latency     time.Duration
	staleWindow time.Duration
	now         func() time.Time
}

var _ ports.Upstream = (*Simulator)(nil)

// Option configures a Simulator.
type Option func(*Simulator)

// WithLatency delays every call.
func WithLatency(d time.Duration) Option {
	return func(s *Simulator) { s.latency = d }
}

// WithStaleReadWindow sets how long budget allocations are read back stale.
func WithStaleReadWindow(d time.Duration) Option {
	return func(s *Simulator) { s.staleWindow = d }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithState replaces the seeded data set.
func WithState(state *State) Option {
	return func(s *Simulator) { s.state = state.Clone() }
}

// New creates a Simulator over the built-in data set.
func New(opts ...Option) (*Simulator, error) {
	seed, err := Seed()
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		state:    seed,
		stale:    make(map[domain.ResourceName]staleRead),
		failures: make(map[domain.WriteOperation][]failure),
		fetchErr: make(map[domain.ResourceName]error),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Fetch returns the value addressed by key.
func (s *Simulator) Fetch(ctx context.Context, key domain.CacheKey) (any, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetches++
	if err := s.fetchErr[key.Resource]; err != nil {
		return nil, err
	}
	if sr, ok := s.stale[key.Resource]; ok {
		if s.now().Before(sr.until) {
			return sr.value, nil
		}
		delete(s.stale, key.Resource)
	}
	return s.state.read(key)
}

// Write applies req. An injected failure is returned instead, either before
// or after the write is applied.
func (s *Simulator) Write(ctx context.Context, req domain.WriteRequest) (any, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	op := req.Operation()
	s.writes = append(s.writes, op)

	f, injected := s.nextFailure(op)
	if injected && !f.committed {
		return nil, zerr.With(f.err, "operation", op.String())
	}

	before := s.staleValues(op)
	payload, err := s.state.apply(req, s.now())
	if err != nil {
		return nil, err
	}
	until := s.now().Add(s.staleWindow)
	for r, v := range before {
		s.stale[r] = staleRead{value: v, until: until}
	}

	if injected {
		return payload, errors.Join(domain.ErrWriteCommitted, f.err)
	}
	return payload, nil
}

// FailNext makes the next write of op fail with err without applying it.
func (s *Simulator) FailNext(op domain.WriteOperation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], failure{err: err})
}

// FailAfterCommit makes the next write of op apply and then report err.
func (s *Simulator) FailAfterCommit(op domain.WriteOperation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], failure{err: err, committed: true})
}

// FailFetches makes every fetch of r fail with err. A nil err clears it.
func (s *Simulator) FailFetches(r domain.ResourceName, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fetchErr, r)
		return
	}
	s.fetchErr[r] = err
}

// Writes returns the operations received so far, in order.
func (s *Simulator) Writes() []domain.WriteOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.writes)
}

// Fetches returns how many fetches were answered.
func (s *Simulator) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// Peek returns the current value of key, ignoring latency and stale reads.
func (s *Simulator) Peek(key domain.CacheKey) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.read(key)
}

func (s *Simulator) nextFailure(op domain.WriteOperation) (failure, bool) {
	queue := s.failures[op]
	if len(queue) == 0 {
		return failure{}, false
	}
	s.failures[op] = queue[1:]
	return queue[0], true
}

// staleValues captures the values that will be served stale after op.
func (s *Simulator) staleValues(op domain.WriteOperation) map[domain.ResourceName]any {
	if s.staleWindow <= 0 {
		return nil
	}
	out := make(map[domain.ResourceName]any)
	for _, r := range staleWrites[op] {
		if v, err := s.state.read(domain.ResourceKey(r)); err == nil {
			out[r] = v
		}
	}
	return out
}

func (s *Simulator) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
