// Package derive recomputes the fields of cached records that are functions of other
// fields on the same record. Every function here is pure and idempotent: derived
// fields are computed from primitive fields only, and raw text is never overwritten.
package derive

import (
	"html"

	"github.com/shopspring/decimal"
	"go.trai.ch/stashsync/internal/core/domain"
)

// Recompute returns value with every derived field recalculated as of the given day.
// Values of types without derived fields are returned unchanged.
func Recompute(value any, asOf domain.Date) any {
	switch v := value.(type) {
	case domain.Dashboard:
		return Dashboard(v, asOf)
	case domain.RecurringItem:
		return RecurringItem(v, asOf)
	case domain.Stash:
		return Stash(v, asOf)
	case domain.StashItem:
		return StashItem(v, asOf)
	case domain.PendingBookmarks:
		return PendingBookmarks(v)
	case domain.MonthNote:
		return MonthNote(v)
	case domain.AllNotes:
		return AllNotes(v)
	case domain.NoteHistory:
		return NoteHistory(v)
	case domain.CategoryStore:
		return CategoryStore(v)
	case domain.CategoryGroups:
		return CategoryGroups(v)
	case domain.Goals:
		return Goals(v)
	default:
		return value
	}
}

// Dashboard recomputes every item and the dashboard totals.
func Dashboard(d domain.Dashboard, asOf domain.Date) domain.Dashboard {
	d = d.Clone()
	var monthly, planned domain.Money
	for i := range d.Items {
		d.Items[i] = RecurringItem(d.Items[i], asOf)
		if !d.Items[i].Enabled {
			continue
		}
		monthly = monthly.Add(d.Items[i].MonthlyTarget)
		planned = planned.Add(d.Items[i].PlannedBudget)
	}
	d.TotalMonthlyTarget = monthly
	d.TotalPlanned = planned
	return d
}

// RecurringItem recomputes the name, monthly target, progress and status of an item.
func RecurringItem(it domain.RecurringItem, asOf domain.Date) domain.RecurringItem {
	it.Name = html.UnescapeString(it.RawName)
	it.MonthlyTarget = MonthlyTarget(it.Amount, it.Balance, asOf, it.NextDue)
	it.Progress = Progress(it.Balance, it.Amount)
	it.Status = classify(it.Enabled, it.Amount, it.Balance, it.PlannedBudget, it.MonthlyTarget)
	return it
}

// Stash recomputes every stash item.
func Stash(s domain.Stash, asOf domain.Date) domain.Stash {
	s = s.Clone()
	for i := range s.Items {
		s.Items[i] = StashItem(s.Items[i], asOf)
	}
	return s
}

// StashItem recomputes the derived fields of a savings goal.
// The shortfall is the part of this month's target not covered by the planned budget.
func StashItem(it domain.StashItem, asOf domain.Date) domain.StashItem {
	it.Name = html.UnescapeString(it.RawName)
	it.MonthlyTarget = MonthlyTarget(it.TargetAmount, it.Balance, asOf, it.TargetDate)
	it.Progress = Progress(it.Balance, it.TargetAmount)
	it.Status = classify(!it.Archived, it.TargetAmount, it.Balance, it.PlannedBudget, it.MonthlyTarget)

	shortfall := it.MonthlyTarget.Sub(it.PlannedBudget)
	if shortfall.IsNegative() {
		shortfall = shortfall.ZeroOf()
	}
	it.Shortfall = shortfall
	return it
}

// PendingBookmarks decodes the titles of the review queue.
func PendingBookmarks(p domain.PendingBookmarks) domain.PendingBookmarks {
	p = p.Clone()
	for i := range p.Items {
		p.Items[i].Title = html.UnescapeString(p.Items[i].RawTitle)
	}
	return p
}

// MonthNote decodes the body of a note.
func MonthNote(n domain.MonthNote) domain.MonthNote {
	n.Body = html.UnescapeString(n.RawBody)
	return n
}

// AllNotes decodes the body of every note.
func AllNotes(a domain.AllNotes) domain.AllNotes {
	notes := make([]domain.MonthNote, len(a.Notes))
	for i, n := range a.Notes {
		notes[i] = MonthNote(n)
	}
	a.Notes = notes
	return a
}

// NoteHistory decodes the body of every revision.
func NoteHistory(h domain.NoteHistory) domain.NoteHistory {
	revs := make([]domain.NoteRevision, len(h.Revisions))
	for i, r := range h.Revisions {
		r.Body = html.UnescapeString(r.RawBody)
		revs[i] = r
	}
	h.Revisions = revs
	return h
}

// CategoryStore decodes the name of every category.
func CategoryStore(c domain.CategoryStore) domain.CategoryStore {
	cats := make([]domain.Category, len(c.Categories))
	for i, cat := range c.Categories {
		cat.Name = html.UnescapeString(cat.RawName)
		cats[i] = cat
	}
	c.Categories = cats
	return c
}

// CategoryGroups decodes the name of every category group.
func CategoryGroups(g domain.CategoryGroups) domain.CategoryGroups {
	groups := make([]domain.CategoryGroup, len(g.Groups))
	for i, grp := range g.Groups {
		grp.Name = html.UnescapeString(grp.RawName)
		groups[i] = grp
	}
	g.Groups = groups
	return g
}

// Goals decodes the name of every goal.
func Goals(g domain.Goals) domain.Goals {
	goals := make([]domain.Goal, len(g.Goals))
	for i, goal := range g.Goals {
		goal.Name = html.UnescapeString(goal.RawName)
		goals[i] = goal
	}
	g.Goals = goals
	return g
}

// MonthlyTarget returns the whole-unit amount to set aside each month so that
// balance reaches target by the due month. A zero or past due date counts as
// due this month.
func MonthlyTarget(target, balance domain.Money, asOf, due domain.Date) domain.Money {
	remaining := target.Sub(balance)
	if !remaining.Amount.IsPositive() {
		return target.ZeroOf()
	}

	months := 1
	if !due.IsZero() {
		months = max(1, asOf.MonthsUntil(due))
	}

	perMonth := remaining.Amount.Div(decimal.NewFromInt(int64(months))).Ceil()
	return domain.Money{Amount: perMonth, Currency: target.Currency}
}

// Progress returns balance/target clamped to [0, 1]. A zero target is complete.
func Progress(balance, target domain.Money) decimal.Decimal {
	if !target.Amount.IsPositive() {
		return decimal.NewFromInt(1)
	}
	p := balance.Amount.Div(target.Amount)
	if p.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

func classify(active bool, target, balance, planned, monthly domain.Money) domain.ItemStatus {
	switch {
	case !active:
		return domain.StatusInactive
	case balance.Cmp(target) >= 0:
		return domain.StatusFunded
	case planned.Cmp(monthly) > 0:
		return domain.StatusAhead
	case planned.Cmp(monthly) == 0:
		return domain.StatusOnTrack
	default:
		return domain.StatusBehind
	}
}
