package app

import (
	"context"
	"slices"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/engine/mutation"
)

type speculateFunc = func(key domain.CacheKey, current any) (next any, ok bool)

// newMutation returns a mutation that sends req upstream and touches keys,
// in the order given. Speculative edits of later keys may use what the edits
// of earlier keys captured.
func (a *App) newMutation(req domain.WriteRequest, keys ...domain.CacheKey) mutation.Mutation[any] {
	return mutation.Mutation[any]{
		Operation: req.Operation(),
		Keys:      keys,
		Remote: func(ctx context.Context) (any, error) {
			return a.upstream.Write(ctx, req)
		},
	}
}

func (a *App) run(ctx context.Context, m mutation.Mutation[any]) error {
	_, err := mutation.Run(ctx, a.protocol, m)
	return err
}

func runFor[T any](ctx context.Context, a *App, m mutation.Mutation[any]) (T, error) {
	var zero T
	v, err := mutation.Run(ctx, a.protocol, m)
	if err != nil {
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// edit adapts fn to a speculative edit of a cached T. fn works on a copy
// that shares nothing with the cached value.
func edit[T any](fn func(*T) bool) speculateFunc {
	return func(_ domain.CacheKey, current any) (any, bool) {
		v, ok := current.(T)
		if !ok {
			return nil, false
		}
		if c, ok := any(v).(interface{ Clone() T }); ok {
			v = c.Clone()
		}
		if !fn(&v) {
			return nil, false
		}
		return v, true
	}
}

// byResource routes each key to the edit of its resource.
type byResource map[domain.ResourceName]speculateFunc

func (b byResource) speculate(key domain.CacheKey, current any) (any, bool) {
	fn, ok := b[key.Resource]
	if !ok {
		return nil, false
	}
	return fn(key, current)
}

// allocate sets the planned budget of every allocation and takes the
// difference from the unassigned funds. Nothing is edited when an
// allocation names an unknown item.
func allocate(allocs []domain.AllocateFundsRequest) speculateFunc {
	var delta *domain.Money
	return byResource{
		domain.ResourceStash: edit(func(s *domain.Stash) bool {
			var total domain.Money
			for _, alloc := range allocs {
				i := s.Item(alloc.StashID)
				if i < 0 {
					return false
				}
				total = total.Add(alloc.Amount.Sub(s.Items[i].PlannedBudget))
				s.Items[i].PlannedBudget = alloc.Amount
			}
			delta = &total
			return true
		}),
		domain.ResourceAvailableToStash: takeFromAvailable(&delta),
	}.speculate
}

// takeFromAvailable subtracts the amount captured in *amount, if any.
func takeFromAvailable(amount **domain.Money) speculateFunc {
	return edit(func(v *domain.AvailableToStash) bool {
		if *amount == nil {
			return false
		}
		v.Amount = v.Amount.Sub(**amount)
		return true
	})
}

// returnToAvailable adds the amount captured in *amount, if any.
func returnToAvailable(amount **domain.Money) speculateFunc {
	return edit(func(v *domain.AvailableToStash) bool {
		if *amount == nil {
			return false
		}
		v.Amount = v.Amount.Add(**amount)
		return true
	})
}

// editRecurring applies fn to the recurring item id of d.
func editRecurring(d *domain.Dashboard, id string, fn func(*domain.RecurringItem)) bool {
	i := d.Item(id)
	if i < 0 {
		return false
	}
	fn(&d.Items[i])
	return true
}

// editStash applies fn to the stash item id of s.
func editStash(s *domain.Stash, id string, fn func(*domain.StashItem)) bool {
	i := s.Item(id)
	if i < 0 {
		return false
	}
	fn(&s.Items[i])
	return true
}

func pendingIndex(p domain.PendingBookmarks, id string) int {
	return slices.IndexFunc(p.Items, func(b domain.PendingBookmark) bool { return b.ID == id })
}
