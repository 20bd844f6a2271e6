package upstream

import (
	_ "embed"
	"encoding/json"
	"slices"
	"strings"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/zerr"
)

//go:embed seed.json
var seedJSON []byte

// State is the full upstream data set.
type State struct {
	Dashboard        domain.Dashboard        `json:"dashboard"`
	Stash            domain.Stash            `json:"stash"`
	AvailableToStash domain.AvailableToStash `json:"availableToStash"`
	StashConfig      domain.StashConfig      `json:"stashConfig"`
	StashHistory     domain.StashHistory     `json:"stashHistory"`
	PendingBookmarks domain.PendingBookmarks `json:"pendingBookmarks"`
	Goals            domain.Goals            `json:"goals"`
	Notes            []domain.MonthNote      `json:"notes"`
	NoteHistory      domain.NoteHistory      `json:"noteHistory"`
	Categories       domain.CategoryStore    `json:"categories"`
	Groups           domain.CategoryGroups   `json:"groups"`
	Settings         domain.Settings         `json:"settings"`
	SecurityEvents   domain.SecurityEvents   `json:"securityEvents"`
}

// Seed returns the built-in demo data set.
func Seed() (*State, error) {
	return ParseState(seedJSON)
}

// ParseState decodes a data set from JSON.
func ParseState(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, zerr.Wrap(err, "failed to parse upstream state")
	}
	return &s, nil
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := *s
	c.Dashboard = s.Dashboard.Clone()
	c.Stash = s.Stash.Clone()
	c.PendingBookmarks = s.PendingBookmarks.Clone()
	c.StashHistory.Entries = slices.Clone(s.StashHistory.Entries)
	c.Goals.Goals = slices.Clone(s.Goals.Goals)
	c.Notes = slices.Clone(s.Notes)
	c.NoteHistory.Revisions = slices.Clone(s.NoteHistory.Revisions)
	c.Categories.Categories = slices.Clone(s.Categories.Categories)
	c.Groups.Groups = slices.Clone(s.Groups.Groups)
	c.SecurityEvents.Events = slices.Clone(s.SecurityEvents.Events)
	return &c
}

// read returns a copy of the value addressed by key.
func (s *State) read(key domain.CacheKey) (any, error) {
	c := s.Clone()
	switch key.Resource {
	case domain.ResourceDashboard:
		return c.Dashboard, nil
	case domain.ResourceCategoryStore:
		return c.Categories, nil
	case domain.ResourceCategoryGroups:
		return c.Groups, nil
	case domain.ResourceStash:
		return c.Stash, nil
	case domain.ResourceAvailableToStash:
		return c.AvailableToStash, nil
	case domain.ResourceStashConfig:
		return c.StashConfig, nil
	case domain.ResourceStashHistory:
		return c.StashHistory, nil
	case domain.ResourcePendingBookmarks:
		return c.PendingBookmarks, nil
	case domain.ResourceMonarchGoals:
		return c.Goals, nil
	case domain.ResourceMonthNotes:
		month := key.Param("month")
		if i := c.note(month); i >= 0 {
			return c.Notes[i], nil
		}
		return domain.MonthNote{Month: month}, nil
	case domain.ResourceAllNotes:
		notes := c.Notes
		slices.SortFunc(notes, func(a, b domain.MonthNote) int { return strings.Compare(a.Month, b.Month) })
		return domain.AllNotes{Notes: notes}, nil
	case domain.ResourceNoteHistory:
		return c.NoteHistory, nil
	case domain.ResourceSettings:
		return c.Settings, nil
	case domain.ResourceSecurityEvents:
		return c.SecurityEvents, nil
	default:
		return nil, zerr.With(domain.ErrNoFetcher, "resource", key.Resource.String())
	}
}

func (s *State) note(month string) int {
	return slices.IndexFunc(s.Notes, func(n domain.MonthNote) bool { return n.Month == month })
}
