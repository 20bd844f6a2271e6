// Package mutation implements the speculative write protocol: cancel in-flight
// fetches, snapshot, apply a local edit, call upstream, then either roll back or
// dispatch the operation's effects.
package mutation

import (
	"context"
	"errors"
	"slices"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/zerr"
)

// Policy decides what happens after a successful remote write.
type Policy int

const (
	// PolicyDefault uses the policy registered for the operation.
	PolicyDefault Policy = iota
	// DispatchOnSuccess hands the operation to the dispatcher.
	DispatchOnSuccess
	// SuppressDispatch keeps the speculative value. Used where upstream serves
	// stale reads right after a write, so a refetch would revert a correct edit.
	SuppressDispatch
)

// Budget-ledger allocations are read back stale by upstream for a while.
var suppressed = []domain.WriteOperation{
	domain.OpAllocateFunds,
	domain.OpAllocateFundsBatch,
	domain.OpSetRecurringBudget,
}

// PolicyFor returns the registered policy of op.
func PolicyFor(op domain.WriteOperation) Policy {
	if slices.Contains(suppressed, op) {
		return SuppressDispatch
	}
	return DispatchOnSuccess
}

func (p Policy) String() string {
	switch p {
	case DispatchOnSuccess:
		return "dispatch"
	case SuppressDispatch:
		return "suppress"
	default:
		return "default"
	}
}

// Outcome is how a mutation settled.
type Outcome string

// Outcomes.
const (
	OutcomeDispatched Outcome = "dispatched"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeRolledBack Outcome = "rolled_back"
	OutcomeAborted    Outcome = "aborted"
)

// Dispatcher applies the effects of a settled write.
type Dispatcher interface {
	Dispatch(ctx context.Context, op domain.WriteOperation)
}

// Mutation describes one write operation run through the protocol.
type Mutation[R any] struct {
	// Operation names the write for dispatch and diagnostics.
	Operation domain.WriteOperation
	// Keys are the cache entries the speculative edit touches.
	Keys []domain.CacheKey
	// Speculate computes the next value of key from its current cached value.
	// Returning false leaves the entry untouched. Nil skips speculation.
	Speculate func(key domain.CacheKey, current any) (next any, ok bool)
	// Remote performs the upstream write.
	Remote func(ctx context.Context) (R, error)
	// Policy overrides the registered policy of Operation.
	Policy Policy
	// OnSuccess, when set, runs after a successful write and before dispatch.
	OnSuccess func(result R)
}

// Protocol runs mutations against a cache controller.
// It is safe for concurrent use.
type Protocol struct {
	cache      ports.CacheController
	dispatcher Dispatcher
	queue      *KeyQueue
	tracer     ports.Tracer
	logger     ports.Logger
}

// NewProtocol creates a Protocol.
func NewProtocol(
	cache ports.CacheController,
	dispatcher Dispatcher,
	tracer ports.Tracer,
	logger ports.Logger,
) *Protocol {
	return &Protocol{
		cache:      cache,
		dispatcher: dispatcher,
		queue:      NewKeyQueue(),
		tracer:     tracer,
		logger:     logger,
	}
}

type snapshot struct {
	key   domain.CacheKey
	value any
}

// Run executes m. Mutations that share a key run one after another, from the
// cancel step until they settle; mutations on disjoint keys run concurrently.
//
// A failed remote write restores every snapshotted entry and returns an error
// wrapping the remote error. A write that fails after upstream committed it
// (the error wraps domain.ErrWriteCommitted) counts as a success.
func Run[R any](ctx context.Context, p *Protocol, m Mutation[R]) (R, error) {
	var zero R

	ctx, span := p.tracer.Start(ctx, "mutation."+m.Operation.String(),
		ports.WithAttribute("operation", m.Operation.String()),
		ports.WithAttribute("keys", len(m.Keys)),
	)
	defer span.End()

	release, err := p.queue.Acquire(ctx, m.Keys)
	if err != nil {
		span.SetAttribute("outcome", string(OutcomeAborted))
		return zero, zerr.With(zerr.Wrap(err, "mutation aborted while queued"), "operation", m.Operation.String())
	}
	defer release()

	for _, key := range m.Keys {
		if err := p.cache.Cancel(ctx, key); err != nil {
			span.SetAttribute("outcome", string(OutcomeAborted))
			return zero, zerr.With(zerr.Wrap(err, "failed to cancel in-flight fetch"), "key", key.String())
		}
	}

	snapshots := p.speculate(m.Keys, m.Speculate)
	span.SetAttribute("speculated", len(snapshots))

	result, err := m.Remote(ctx)
	if err != nil && !errors.Is(err, domain.ErrWriteCommitted) {
		p.rollback(snapshots)
		span.RecordError(err)
		span.SetAttribute("outcome", string(OutcomeRolledBack))

		wrapped := zerr.With(zerr.Wrap(err, domain.ErrRemoteWriteFailed.Error()), "operation", m.Operation.String())
		p.logger.Warn("remote write failed, rolled back",
			"operation", m.Operation.String(), "restored", len(snapshots), "error", err.Error())
		return zero, wrapped
	}
	if err != nil {
		p.logger.Warn("write committed upstream despite error",
			"operation", m.Operation.String(), "error", err.Error())
	}

	if m.OnSuccess != nil {
		m.OnSuccess(result)
	}

	policy := m.Policy
	if policy == PolicyDefault {
		policy = PolicyFor(m.Operation)
	}
	if policy == SuppressDispatch {
		span.SetAttribute("outcome", string(OutcomeSuppressed))
		p.logger.Debug("dispatch suppressed", "operation", m.Operation.String())
		return result, nil
	}

	p.dispatcher.Dispatch(ctx, m.Operation)
	span.SetAttribute("outcome", string(OutcomeDispatched))
	return result, nil
}

// speculate snapshots every populated key and applies the local edit.
// Keys without a cached value are skipped and not restored later.
func (p *Protocol) speculate(
	keys []domain.CacheKey,
	edit func(domain.CacheKey, any) (any, bool),
) []snapshot {
	if edit == nil {
		return nil
	}

	var snapshots []snapshot
	for _, key := range keys {
		current, ok := p.cache.Get(key)
		if !ok {
			continue
		}
		next, apply := edit(key, current)
		if !apply {
			continue
		}
		snapshots = append(snapshots, snapshot{key: key, value: current})
		p.cache.Set(key, next)
	}
	return snapshots
}

// rollback restores snapshots in reverse order. Recomputing derived fields is
// idempotent, so a restored value reads back equal to the snapshot. Restored
// entries are left stale without a refetch: Set stamps them as just fetched,
// and the next reader must reconcile them with upstream.
func (p *Protocol) rollback(snapshots []snapshot) {
	for i := len(snapshots) - 1; i >= 0; i-- {
		p.cache.Set(snapshots[i].key, snapshots[i].value)
	}
	for _, s := range snapshots {
		p.cache.Invalidate(s.key, ports.InvalidateOptions{RefetchNow: false})
	}
}

// Pending reports how many keys have a mutation in flight or queued.
func (p *Protocol) Pending() int {
	return p.queue.Pending()
}
