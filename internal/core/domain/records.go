package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus is a coarse classification of how well an item is funded.
type ItemStatus string

// Item statuses.
const (
	StatusInactive ItemStatus = "inactive"
	StatusFunded   ItemStatus = "funded"
	StatusAhead    ItemStatus = "ahead"
	StatusOnTrack  ItemStatus = "on_track"
	StatusBehind   ItemStatus = "behind"
)

// RecurringItem is a recurring expense tracked on the dashboard.
// Fields below the marker are derived and rewritten by recomputation.
type RecurringItem struct {
	ID              string `json:"id"`
	RawName         string `json:"rawName"`
	CategoryID      string `json:"categoryId,omitempty"`
	Amount          Money  `json:"amount"`
	FrequencyMonths int    `json:"frequencyMonths"`
	NextDue         Date   `json:"nextDue"`
	Balance         Money  `json:"balance"`
	PlannedBudget   Money  `json:"plannedBudget"`
	Enabled         bool   `json:"enabled"`
	InRollup        bool   `json:"inRollup"`

	Name          string          `json:"name"`
	MonthlyTarget Money           `json:"monthlyTarget"`
	Progress      decimal.Decimal `json:"progress"`
	Status        ItemStatus      `json:"status"`
}

// Dashboard is the recurring-expenses overview.
type Dashboard struct {
	Items        []RecurringItem `json:"items"`
	RollupBudget Money           `json:"rollupBudget"`
	LastSync     time.Time       `json:"lastSync"`

	TotalMonthlyTarget Money `json:"totalMonthlyTarget"`
	TotalPlanned       Money `json:"totalPlanned"`
}

// Clone returns a copy that does not share the item slice.
func (d Dashboard) Clone() Dashboard {
	d.Items = slices.Clone(d.Items)
	return d
}

// Item returns the index of the item with the given id, or -1.
func (d Dashboard) Item(id string) int {
	return slices.IndexFunc(d.Items, func(it RecurringItem) bool { return it.ID == id })
}

// WithRollup returns d with item id moved into or out of the rollup budget.
// It reports false when there is no such item.
func (d Dashboard) WithRollup(id string, in bool) (Dashboard, bool) {
	i := d.Item(id)
	if i < 0 {
		return d, false
	}
	d = d.Clone()
	it := &d.Items[i]
	if it.InRollup == in {
		return d, true
	}
	it.InRollup = in
	if in {
		d.RollupBudget = d.RollupBudget.Add(it.PlannedBudget)
	} else {
		d.RollupBudget = d.RollupBudget.Sub(it.PlannedBudget)
	}
	return d, true
}

// StashItem is a savings goal funded month by month.
type StashItem struct {
	ID            string `json:"id"`
	RawName       string `json:"rawName"`
	TargetAmount  Money  `json:"targetAmount"`
	Balance       Money  `json:"balance"`
	TargetDate    Date   `json:"targetDate"`
	PlannedBudget Money  `json:"plannedBudget"`
	Archived      bool   `json:"archived"`
	GoalID        string `json:"goalId,omitempty"`
	SortOrder     int    `json:"sortOrder"`

	Name          string          `json:"name"`
	MonthlyTarget Money           `json:"monthlyTarget"`
	Progress      decimal.Decimal `json:"progress"`
	Status        ItemStatus      `json:"status"`
	Shortfall     Money           `json:"shortfall"`
}

// Stash is the list of savings goals.
type Stash struct {
	Items []StashItem `json:"items"`
}

// Clone returns a copy that does not share the item slice.
func (s Stash) Clone() Stash {
	s.Items = slices.Clone(s.Items)
	return s
}

// Item returns the index of the item with the given id, or -1.
func (s Stash) Item(id string) int {
	return slices.IndexFunc(s.Items, func(it StashItem) bool { return it.ID == id })
}

// Reordered returns s with the listed items moved to the front in the given
// order and sort orders renumbered. It returns the first unknown id, if any.
func (s Stash) Reordered(ids []string) (Stash, string) {
	ordered := make([]StashItem, 0, len(s.Items))
	for _, id := range ids {
		i := s.Item(id)
		if i < 0 {
			return s, id
		}
		ordered = append(ordered, s.Items[i])
	}
	for _, it := range s.Items {
		if !slices.Contains(ids, it.ID) {
			ordered = append(ordered, it)
		}
	}
	s.Items = ordered
	s.Renumber()
	return s, ""
}

// Renumber sets each item's sort order to its position.
func (s Stash) Renumber() {
	for i := range s.Items {
		s.Items[i].SortOrder = i
	}
}

// NewStashItem returns an unfunded stash item. rawName is stored as given.
func NewStashItem(id, rawName string, target Money, due Date, sortOrder int) StashItem {
	return StashItem{
		ID:            id,
		RawName:       rawName,
		TargetAmount:  target,
		Balance:       target.ZeroOf(),
		TargetDate:    due,
		PlannedBudget: target.ZeroOf(),
		SortOrder:     sortOrder,
	}
}

// AvailableToStash is the amount not yet assigned to any budget.
type AvailableToStash struct {
	Amount Money `json:"amount"`
}

// StashConfig holds user preferences for the stash page.
type StashConfig struct {
	IncludeExpectedIncome bool  `json:"includeExpectedIncome"`
	Buffer                Money `json:"buffer"`
}

// PendingBookmark is a captured link waiting to be turned into a stash item.
type PendingBookmark struct {
	ID       string `json:"id"`
	RawTitle string `json:"rawTitle"`
	URL      string `json:"url"`

	Title string `json:"title"`
}

// PendingBookmarks is the pending review queue.
type PendingBookmarks struct {
	Items []PendingBookmark `json:"items"`
}

// Clone returns a copy that does not share the item slice.
func (p PendingBookmarks) Clone() PendingBookmarks {
	p.Items = slices.Clone(p.Items)
	return p
}

// MonthNote is the free-text note attached to a budget month.
type MonthNote struct {
	Month     string    `json:"month"`
	RawBody   string    `json:"rawBody"`
	UpdatedAt time.Time `json:"updatedAt"`

	Body string `json:"body"`
}

// AllNotes lists the notes of every month.
type AllNotes struct {
	Notes []MonthNote `json:"notes"`
}

// NoteRevision is a previous version of a month note.
type NoteRevision struct {
	Month   string    `json:"month"`
	RawBody string    `json:"rawBody"`
	SavedAt time.Time `json:"savedAt"`

	Body string `json:"body"`
}

// NoteHistory lists the revisions of the notes, newest first.
type NoteHistory struct {
	Revisions []NoteRevision `json:"revisions"`
}

// Category is an upstream budget category.
type Category struct {
	ID      string `json:"id"`
	RawName string `json:"rawName"`
	GroupID string `json:"groupId"`

	Name string `json:"name"`
}

// CategoryStore is the flat list of categories.
type CategoryStore struct {
	Categories []Category `json:"categories"`
}

// CategoryGroup is an upstream category group.
type CategoryGroup struct {
	ID      string `json:"id"`
	RawName string `json:"rawName"`

	Name string `json:"name"`
}

// CategoryGroups lists category groups.
type CategoryGroups struct {
	Groups []CategoryGroup `json:"groups"`
}

// Goal is an upstream savings goal that a stash item can link to.
type Goal struct {
	ID      string `json:"id"`
	RawName string `json:"rawName"`
	Balance Money  `json:"balance"`

	Name string `json:"name"`
}

// Goals lists upstream goals.
type Goals struct {
	Goals []Goal `json:"goals"`
}

// HistoryEntry is one month of a stash history report.
type HistoryEntry struct {
	Month   string `json:"month"`
	Balance Money  `json:"balance"`
}

// StashHistory is the monthly balance report of the stash.
type StashHistory struct {
	Entries []HistoryEntry `json:"entries"`
}

// Settings are the user's application settings.
type Settings struct {
	AutoSync       bool   `json:"autoSync"`
	PollIntervalMs int    `json:"pollIntervalMs"`
	Currency       string `json:"currency"`
}

// SecurityEvent is an entry of the account security log.
type SecurityEvent struct {
	At   time.Time `json:"at"`
	Kind string    `json:"kind"`
}

// SecurityEvents is the account security log.
type SecurityEvents struct {
	Events []SecurityEvent `json:"events"`
}
