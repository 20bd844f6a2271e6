package upstream

import (
	"html"
	"slices"
	"time"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/zerr"
)

func notFound(kind, id string) error {
	return zerr.With(zerr.With(domain.ErrItemNotFound, "kind", kind), "id", id)
}

// apply mutates s according to req and returns the write payload.
func (s *State) apply(req domain.WriteRequest, now time.Time) (any, error) {
	switch r := req.(type) {
	case domain.SyncRequest:
		s.Dashboard.LastSync = now
		return s.Dashboard.LastSync, nil

	case domain.ToggleItemRequest:
		i := s.Dashboard.Item(r.ItemID)
		if i < 0 {
			return nil, notFound("recurring", r.ItemID)
		}
		s.Dashboard.Items[i].Enabled = r.Enabled
		return nil, nil

	case domain.AllocateFundsRequest:
		return nil, s.allocate([]domain.AllocateFundsRequest{r})

	case domain.AllocateFundsBatchRequest:
		return nil, s.allocate(r.Allocations)

	case domain.SetRecurringBudgetRequest:
		if r.Amount.IsNegative() {
			return nil, zerr.With(domain.ErrInvalidAmount, "amount", r.Amount.Amount.String())
		}
		i := s.Dashboard.Item(r.ItemID)
		if i < 0 {
			return nil, notFound("recurring", r.ItemID)
		}
		delta := r.Amount.Sub(s.Dashboard.Items[i].PlannedBudget)
		s.Dashboard.Items[i].PlannedBudget = r.Amount
		s.AvailableToStash.Amount = s.AvailableToStash.Amount.Sub(delta)
		return nil, nil

	case domain.CreateStashRequest:
		if s.Stash.Item(r.ID) >= 0 {
			return nil, zerr.With(zerr.New("stash item already exists"), "id", r.ID)
		}
		item := domain.NewStashItem(r.ID, html.EscapeString(r.Name), r.TargetAmount, r.TargetDate, len(s.Stash.Items))
		s.Stash.Items = append(s.Stash.Items, item)
		return item, nil

	case domain.UpdateStashRequest:
		i := s.Stash.Item(r.ID)
		if i < 0 {
			return nil, notFound("stash", r.ID)
		}
		it := &s.Stash.Items[i]
		it.RawName = html.EscapeString(r.Name)
		it.TargetAmount = r.TargetAmount
		it.TargetDate = r.TargetDate
		return *it, nil

	case domain.DeleteStashRequest:
		i := s.Stash.Item(r.ID)
		if i < 0 {
			return nil, notFound("stash", r.ID)
		}
		s.AvailableToStash.Amount = s.AvailableToStash.Amount.Add(s.Stash.Items[i].PlannedBudget)
		s.Stash.Items = slices.Delete(s.Stash.Items, i, i+1)
		s.Stash.Renumber()
		return nil, nil

	case domain.ArchiveStashRequest:
		return nil, s.setArchived(r.ID, true)

	case domain.UnarchiveStashRequest:
		return nil, s.setArchived(r.ID, false)

	case domain.ReorderStashRequest:
		reordered, unknown := s.Stash.Reordered(r.IDs)
		if unknown != "" {
			return nil, notFound("stash", unknown)
		}
		s.Stash = reordered
		return nil, nil

	case domain.CompleteStashRequest:
		i := s.Stash.Item(r.ID)
		if i < 0 {
			return nil, notFound("stash", r.ID)
		}
		it := &s.Stash.Items[i]
		s.AvailableToStash.Amount = s.AvailableToStash.Amount.Add(it.PlannedBudget)
		it.PlannedBudget = it.PlannedBudget.ZeroOf()
		it.Archived = true
		return nil, nil

	case domain.SkipPendingRequest:
		i := s.pending(r.ID)
		if i < 0 {
			return nil, notFound("pending", r.ID)
		}
		s.PendingBookmarks.Items = slices.Delete(s.PendingBookmarks.Items, i, i+1)
		return nil, nil

	case domain.ConvertPendingRequest:
		i := s.pending(r.ID)
		if i < 0 {
			return nil, notFound("pending", r.ID)
		}
		if s.Stash.Item(r.StashID) >= 0 {
			return nil, zerr.With(zerr.New("stash item already exists"), "id", r.StashID)
		}
		bm := s.PendingBookmarks.Items[i]
		item := domain.NewStashItem(r.StashID, bm.RawTitle, r.TargetAmount, r.TargetDate, len(s.Stash.Items))
		s.PendingBookmarks.Items = slices.Delete(s.PendingBookmarks.Items, i, i+1)
		s.Stash.Items = append(s.Stash.Items, item)
		return item, nil

	case domain.LinkGoalRequest:
		i := s.Stash.Item(r.StashID)
		if i < 0 {
			return nil, notFound("stash", r.StashID)
		}
		if r.GoalID != "" && !slices.ContainsFunc(s.Goals.Goals, func(g domain.Goal) bool { return g.ID == r.GoalID }) {
			return nil, notFound("goal", r.GoalID)
		}
		s.Stash.Items[i].GoalID = r.GoalID
		return nil, nil

	case domain.SaveMonthNoteRequest:
		note := domain.MonthNote{Month: r.Month, RawBody: html.EscapeString(r.Body), UpdatedAt: now}
		if i := s.note(r.Month); i >= 0 {
			s.recordRevision(s.Notes[i], now)
			s.Notes[i] = note
		} else {
			s.Notes = append(s.Notes, note)
		}
		return note, nil

	case domain.DeleteMonthNoteRequest:
		i := s.note(r.Month)
		if i < 0 {
			return nil, notFound("note", r.Month)
		}
		s.recordRevision(s.Notes[i], now)
		s.Notes = slices.Delete(s.Notes, i, i+1)
		return nil, nil

	case domain.UpdateSettingsRequest:
		s.Settings = r.Settings
		return s.Settings, nil

	case domain.UpdateStashConfigRequest:
		s.StashConfig = r.Config
		return s.StashConfig, nil

	case domain.AddToRollupRequest:
		return nil, s.setRollup(r.ItemID, true)

	case domain.RemoveFromRollupRequest:
		return nil, s.setRollup(r.ItemID, false)

	case domain.LinkCategoryRequest:
		i := s.Dashboard.Item(r.ItemID)
		if i < 0 {
			return nil, notFound("recurring", r.ItemID)
		}
		if !slices.ContainsFunc(s.Categories.Categories, func(c domain.Category) bool { return c.ID == r.CategoryID }) {
			return nil, notFound("category", r.CategoryID)
		}
		s.Dashboard.Items[i].CategoryID = r.CategoryID
		return nil, nil

	default:
		return nil, zerr.With(domain.ErrUnknownOperation, "operation", req.Operation().String())
	}
}

// allocate applies every allocation or none.
func (s *State) allocate(allocs []domain.AllocateFundsRequest) error {
	for _, a := range allocs {
		if a.Amount.IsNegative() {
			return zerr.With(domain.ErrInvalidAmount, "amount", a.Amount.Amount.String())
		}
		if s.Stash.Item(a.StashID) < 0 {
			return notFound("stash", a.StashID)
		}
	}
	for _, a := range allocs {
		i := s.Stash.Item(a.StashID)
		delta := a.Amount.Sub(s.Stash.Items[i].PlannedBudget)
		s.Stash.Items[i].PlannedBudget = a.Amount
		s.AvailableToStash.Amount = s.AvailableToStash.Amount.Sub(delta)
	}
	return nil
}

func (s *State) setArchived(id string, archived bool) error {
	i := s.Stash.Item(id)
	if i < 0 {
		return notFound("stash", id)
	}
	s.Stash.Items[i].Archived = archived
	return nil
}

func (s *State) setRollup(id string, in bool) error {
	d, ok := s.Dashboard.WithRollup(id, in)
	if !ok {
		return notFound("recurring", id)
	}
	s.Dashboard = d
	return nil
}

func (s *State) pending(id string) int {
	return slices.IndexFunc(s.PendingBookmarks.Items, func(p domain.PendingBookmark) bool { return p.ID == id })
}

func (s *State) recordRevision(n domain.MonthNote, now time.Time) {
	rev := domain.NoteRevision{Month: n.Month, RawBody: n.RawBody, SavedAt: now}
	s.NoteHistory.Revisions = slices.Insert(s.NoteHistory.Revisions, 0, rev)
}
