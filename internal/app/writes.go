package app

import (
	"context"
	"html"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	dashboardKey = domain.ResourceKey(domain.ResourceDashboard)
	stashKey     = domain.ResourceKey(domain.ResourceStash)
	availableKey = domain.ResourceKey(domain.ResourceAvailableToStash)
	pendingKey   = domain.ResourceKey(domain.ResourcePendingBookmarks)
	settingsKey  = domain.ResourceKey(domain.ResourceSettings)
	stashCfgKey  = domain.ResourceKey(domain.ResourceStashConfig)
)

// Execute runs any write request through the matching operation.
func (a *App) Execute(ctx context.Context, req domain.WriteRequest) (any, error) {
	switch r := req.(type) {
	case domain.SyncRequest:
		return nil, a.Sync(ctx)
	case domain.ToggleItemRequest:
		return nil, a.ToggleItem(ctx, r.ItemID, r.Enabled)
	case domain.AllocateFundsRequest:
		return nil, a.AllocateFunds(ctx, r.StashID, r.Amount)
	case domain.AllocateFundsBatchRequest:
		return nil, a.AllocateFundsBatch(ctx, r.Allocations)
	case domain.SetRecurringBudgetRequest:
		return nil, a.SetRecurringBudget(ctx, r.ItemID, r.Amount)
	case domain.CreateStashRequest:
		return a.CreateStash(ctx, r)
	case domain.UpdateStashRequest:
		return nil, a.UpdateStash(ctx, r)
	case domain.DeleteStashRequest:
		return nil, a.DeleteStash(ctx, r.ID)
	case domain.ArchiveStashRequest:
		return nil, a.ArchiveStash(ctx, r.ID)
	case domain.UnarchiveStashRequest:
		return nil, a.UnarchiveStash(ctx, r.ID)
	case domain.ReorderStashRequest:
		return nil, a.ReorderStash(ctx, r.IDs)
	case domain.CompleteStashRequest:
		return nil, a.CompleteStash(ctx, r.ID)
	case domain.SkipPendingRequest:
		return nil, a.SkipPending(ctx, r.ID)
	case domain.ConvertPendingRequest:
		return a.ConvertPending(ctx, r)
	case domain.LinkGoalRequest:
		return nil, a.LinkGoal(ctx, r.StashID, r.GoalID)
	case domain.SaveMonthNoteRequest:
		return nil, a.SaveMonthNote(ctx, r.Month, r.Body)
	case domain.DeleteMonthNoteRequest:
		return nil, a.DeleteMonthNote(ctx, r.Month)
	case domain.UpdateSettingsRequest:
		return nil, a.UpdateSettings(ctx, r.Settings)
	case domain.UpdateStashConfigRequest:
		return nil, a.UpdateStashConfig(ctx, r.Config)
	case domain.AddToRollupRequest:
		return nil, a.AddToRollup(ctx, r.ItemID)
	case domain.RemoveFromRollupRequest:
		return nil, a.RemoveFromRollup(ctx, r.ItemID)
	case domain.LinkCategoryRequest:
		return nil, a.LinkCategory(ctx, r.ItemID, r.CategoryID)
	default:
		return nil, zerr.With(domain.ErrUnknownOperation, "operation", req.Operation().String())
	}
}

// Sync asks upstream to pull fresh data from the connected institutions.
func (a *App) Sync(ctx context.Context) error {
	return a.run(ctx, a.newMutation(domain.SyncRequest{}, dashboardKey))
}

// ToggleItem enables or disables tracking of a recurring item.
func (a *App) ToggleItem(ctx context.Context, itemID string, enabled bool) error {
	m := a.newMutation(domain.ToggleItemRequest{ItemID: itemID, Enabled: enabled}, dashboardKey)
	m.Speculate = edit(func(d *domain.Dashboard) bool {
		return editRecurring(d, itemID, func(it *domain.RecurringItem) { it.Enabled = enabled })
	})
	return a.run(ctx, m)
}

// AllocateFunds sets this month's budget of a stash item. The amount moves
// between the item and the unassigned funds.
func (a *App) AllocateFunds(ctx context.Context, stashID string, amount domain.Money) error {
	req := domain.AllocateFundsRequest{StashID: stashID, Amount: amount}
	m := a.newMutation(req, stashKey, availableKey)
	m.Speculate = allocate([]domain.AllocateFundsRequest{req})
	return a.run(ctx, m)
}

// AllocateFundsBatch sets the budget of several stash items in one upstream
// request. Upstream applies all of them or none, and so does the local edit.
func (a *App) AllocateFundsBatch(ctx context.Context, allocs []domain.AllocateFundsRequest) error {
	m := a.newMutation(domain.AllocateFundsBatchRequest{Allocations: allocs}, stashKey, availableKey)
	m.Speculate = allocate(allocs)
	return a.run(ctx, m)
}

// SetRecurringBudget sets this month's budget of a recurring item.
func (a *App) SetRecurringBudget(ctx context.Context, itemID string, amount domain.Money) error {
	m := a.newMutation(domain.SetRecurringBudgetRequest{ItemID: itemID, Amount: amount}, dashboardKey, availableKey)

	var delta *domain.Money
	m.Speculate = byResource{
		domain.ResourceDashboard: edit(func(d *domain.Dashboard) bool {
			return editRecurring(d, itemID, func(it *domain.RecurringItem) {
				diff := amount.Sub(it.PlannedBudget)
				delta = &diff
				it.PlannedBudget = amount
			})
		}),
		domain.ResourceAvailableToStash: takeFromAvailable(&delta),
	}.speculate
	return a.run(ctx, m)
}

// CreateStash creates a stash item. An empty ID is generated.
func (a *App) CreateStash(ctx context.Context, req domain.CreateStashRequest) (domain.StashItem, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	m := a.newMutation(req, stashKey)
	m.Speculate = edit(func(s *domain.Stash) bool {
		if s.Item(req.ID) >= 0 {
			return false
		}
		item := domain.NewStashItem(req.ID, html.EscapeString(req.Name), req.TargetAmount, req.TargetDate, len(s.Items))
		s.Items = append(s.Items, item)
		return true
	})
	return runFor[domain.StashItem](ctx, a, m)
}

// UpdateStash replaces the editable fields of a stash item.
func (a *App) UpdateStash(ctx context.Context, req domain.UpdateStashRequest) error {
	m := a.newMutation(req, stashKey)
	m.Speculate = edit(func(s *domain.Stash) bool {
		return editStash(s, req.ID, func(it *domain.StashItem) {
			it.RawName = html.EscapeString(req.Name)
			it.TargetAmount = req.TargetAmount
			it.TargetDate = req.TargetDate
		})
	})
	return a.run(ctx, m)
}

// DeleteStash deletes a stash item and releases its budget.
func (a *App) DeleteStash(ctx context.Context, id string) error {
	m := a.newMutation(domain.DeleteStashRequest{ID: id}, stashKey, availableKey)

	var released *domain.Money
	m.Speculate = byResource{
		domain.ResourceStash: edit(func(s *domain.Stash) bool {
			i := s.Item(id)
			if i < 0 {
				return false
			}
			planned := s.Items[i].PlannedBudget
			released = &planned
			s.Items = slices.Delete(s.Items, i, i+1)
			s.Renumber()
			return true
		}),
		domain.ResourceAvailableToStash: returnToAvailable(&released),
	}.speculate
	return a.run(ctx, m)
}

// ArchiveStash archives a stash item.
func (a *App) ArchiveStash(ctx context.Context, id string) error {
	return a.setArchived(ctx, domain.ArchiveStashRequest{ID: id}, id, true)
}

// UnarchiveStash restores an archived stash item.
func (a *App) UnarchiveStash(ctx context.Context, id string) error {
	return a.setArchived(ctx, domain.UnarchiveStashRequest{ID: id}, id, false)
}

func (a *App) setArchived(ctx context.Context, req domain.WriteRequest, id string, archived bool) error {
	m := a.newMutation(req, stashKey)
	m.Speculate = edit(func(s *domain.Stash) bool {
		return editStash(s, id, func(it *domain.StashItem) { it.Archived = archived })
	})
	return a.run(ctx, m)
}

// ReorderStash sets the display order of stash items.
func (a *App) ReorderStash(ctx context.Context, ids []string) error {
	m := a.newMutation(domain.ReorderStashRequest{IDs: ids}, stashKey)
	m.Speculate = edit(func(s *domain.Stash) bool {
		reordered, unknown := s.Reordered(ids)
		if unknown != "" {
			return false
		}
		*s = reordered
		return true
	})
	return a.run(ctx, m)
}

// CompleteStash marks a stash item as reached, archives it and releases its
// remaining budget.
func (a *App) CompleteStash(ctx context.Context, id string) error {
	m := a.newMutation(domain.CompleteStashRequest{ID: id}, stashKey, availableKey)

	var released *domain.Money
	m.Speculate = byResource{
		domain.ResourceStash: edit(func(s *domain.Stash) bool {
			return editStash(s, id, func(it *domain.StashItem) {
				planned := it.PlannedBudget
				released = &planned
				it.PlannedBudget = planned.ZeroOf()
				it.Archived = true
			})
		}),
		domain.ResourceAvailableToStash: returnToAvailable(&released),
	}.speculate
	return a.run(ctx, m)
}

// SkipPending dismisses a pending bookmark.
func (a *App) SkipPending(ctx context.Context, id string) error {
	m := a.newMutation(domain.SkipPendingRequest{ID: id}, pendingKey)
	m.Speculate = edit(func(p *domain.PendingBookmarks) bool {
		i := pendingIndex(*p, id)
		if i < 0 {
			return false
		}
		p.Items = slices.Delete(p.Items, i, i+1)
		return true
	})
	return a.run(ctx, m)
}

// ConvertPending turns a pending bookmark into a stash item. An empty StashID
// is generated.
func (a *App) ConvertPending(ctx context.Context, req domain.ConvertPendingRequest) (domain.StashItem, error) {
	if req.StashID == "" {
		req.StashID = uuid.NewString()
	}
	m := a.newMutation(req, pendingKey, stashKey)

	var title *string
	m.Speculate = byResource{
		domain.ResourcePendingBookmarks: edit(func(p *domain.PendingBookmarks) bool {
			i := pendingIndex(*p, req.ID)
			if i < 0 {
				return false
			}
			raw := p.Items[i].RawTitle
			title = &raw
			p.Items = slices.Delete(p.Items, i, i+1)
			return true
		}),
		domain.ResourceStash: edit(func(s *domain.Stash) bool {
			if title == nil || s.Item(req.StashID) >= 0 {
				return false
			}
			s.Items = append(s.Items, domain.NewStashItem(req.StashID, *title, req.TargetAmount, req.TargetDate, len(s.Items)))
			return true
		}),
	}.speculate
	return runFor[domain.StashItem](ctx, a, m)
}

// LinkGoal links a stash item to an upstream goal. An empty goal unlinks it.
func (a *App) LinkGoal(ctx context.Context, stashID, goalID string) error {
	m := a.newMutation(domain.LinkGoalRequest{StashID: stashID, GoalID: goalID}, stashKey)
	m.Speculate = edit(func(s *domain.Stash) bool {
		return editStash(s, stashID, func(it *domain.StashItem) { it.GoalID = goalID })
	})
	return a.run(ctx, m)
}

// SaveMonthNote stores the note of a month, formatted YYYY-MM.
func (a *App) SaveMonthNote(ctx context.Context, month, body string) error {
	m := a.newMutation(domain.SaveMonthNoteRequest{Month: month, Body: body}, monthNoteKey(month))
	now := a.now()
	m.Speculate = edit(func(n *domain.MonthNote) bool {
		n.RawBody = html.EscapeString(body)
		n.UpdatedAt = now
		return true
	})
	return a.run(ctx, m)
}

// DeleteMonthNote removes the note of a month.
func (a *App) DeleteMonthNote(ctx context.Context, month string) error {
	m := a.newMutation(domain.DeleteMonthNoteRequest{Month: month}, monthNoteKey(month))
	m.Speculate = edit(func(n *domain.MonthNote) bool {
		*n = domain.MonthNote{Month: month}
		return true
	})
	return a.run(ctx, m)
}

// UpdateSettings replaces the application settings. A changed poll interval
// is applied to the running cache once upstream accepted it.
func (a *App) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	m := a.newMutation(domain.UpdateSettingsRequest{Settings: settings}, settingsKey)
	m.Speculate = edit(func(s *domain.Settings) bool {
		*s = settings
		return true
	})
	m.OnSuccess = func(any) {
		if settings.PollIntervalMs <= 0 {
			return
		}
		interval := time.Duration(settings.PollIntervalMs) * time.Millisecond
		if interval == a.cache.PollInterval() {
			return
		}
		if err := a.cache.SetPollInterval(interval); err != nil {
			a.logger.Warn("ignoring poll interval from settings", "error", err.Error())
		}
	}
	return a.run(ctx, m)
}

// UpdateStashConfig replaces the stash preferences.
func (a *App) UpdateStashConfig(ctx context.Context, cfg domain.StashConfig) error {
	m := a.newMutation(domain.UpdateStashConfigRequest{Config: cfg}, stashCfgKey)
	m.Speculate = edit(func(c *domain.StashConfig) bool {
		*c = cfg
		return true
	})
	return a.run(ctx, m)
}

// AddToRollup moves a recurring item into the rollup budget.
func (a *App) AddToRollup(ctx context.Context, itemID string) error {
	return a.setRollup(ctx, domain.AddToRollupRequest{ItemID: itemID}, itemID, true)
}

// RemoveFromRollup moves a recurring item out of the rollup budget.
func (a *App) RemoveFromRollup(ctx context.Context, itemID string) error {
	return a.setRollup(ctx, domain.RemoveFromRollupRequest{ItemID: itemID}, itemID, false)
}

func (a *App) setRollup(ctx context.Context, req domain.WriteRequest, itemID string, in bool) error {
	m := a.newMutation(req, dashboardKey)
	m.Speculate = edit(func(d *domain.Dashboard) bool {
		next, ok := d.WithRollup(itemID, in)
		*d = next
		return ok
	})
	return a.run(ctx, m)
}

// LinkCategory links a recurring item to an upstream category.
func (a *App) LinkCategory(ctx context.Context, itemID, categoryID string) error {
	m := a.newMutation(domain.LinkCategoryRequest{ItemID: itemID, CategoryID: categoryID}, dashboardKey)
	m.Speculate = edit(func(d *domain.Dashboard) bool {
		return editRecurring(d, itemID, func(it *domain.RecurringItem) { it.CategoryID = categoryID })
	})
	return a.run(ctx, m)
}
