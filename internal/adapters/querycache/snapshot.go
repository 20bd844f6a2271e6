package querycache

import (
	"encoding/json"
	"slices"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/zerr"
)

var decoders = map[domain.ResourceName]func([]byte) (any, error){
	domain.ResourceDashboard:        decode[domain.Dashboard],
	domain.ResourceCategoryStore:    decode[domain.CategoryStore],
	domain.ResourceCategoryGroups:   decode[domain.CategoryGroups],
	domain.ResourceStash:            decode[domain.Stash],
	domain.ResourceAvailableToStash: decode[domain.AvailableToStash],
	domain.ResourceStashConfig:      decode[domain.StashConfig],
	domain.ResourceStashHistory:     decode[domain.StashHistory],
	domain.ResourcePendingBookmarks: decode[domain.PendingBookmarks],
	domain.ResourceMonarchGoals:     decode[domain.Goals],
	domain.ResourceMonthNotes:       decode[domain.MonthNote],
	domain.ResourceAllNotes:         decode[domain.AllNotes],
	domain.ResourceNoteHistory:      decode[domain.NoteHistory],
	domain.ResourceSettings:         decode[domain.Settings],
	domain.ResourceSecurityEvents:   decode[domain.SecurityEvents],
}

func decode[T any](raw []byte) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Decode parses the JSON form of a value of resource r into its record type.
func Decode(r domain.ResourceName, raw []byte) (any, error) {
	fn, ok := decoders[r]
	if !ok {
		return nil, zerr.With(domain.ErrUnknownResource, "resource", r.String())
	}
	return fn(raw)
}

// Dehydrate returns every entry holding a value, sorted by key.
func (c *Controller) Dehydrate() (*domain.CacheSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &domain.CacheSnapshot{
		Version: domain.SnapshotVersion,
		SavedAt: c.now(),
		Entries: make([]domain.SnapshotEntry, 0, len(c.entries)),
	}
	for k, e := range c.entries {
		if !e.hasValue {
			continue
		}
		raw, err := json.Marshal(e.value)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error()), "key", k.String())
		}
		snap.Entries = append(snap.Entries, domain.SnapshotEntry{Key: k, FetchedAt: e.fetchedAt, Value: raw})
	}
	slices.SortFunc(snap.Entries, func(a, b domain.SnapshotEntry) int {
		switch {
		case a.Key.String() < b.Key.String():
			return -1
		case a.Key.String() > b.Key.String():
			return 1
		default:
			return 0
		}
	})
	return snap, nil
}

// Hydrate restores entries from snap that are not cached yet and returns how
// many were restored. Restored entries keep their fetch time, so old data is
// refetched by the first reader. Undecodable entries are skipped.
func (c *Controller) Hydrate(snap *domain.CacheSnapshot) (int, error) {
	if snap == nil {
		return 0, nil
	}
	if snap.Version != domain.SnapshotVersion {
		return 0, zerr.With(zerr.With(domain.ErrSnapshotReadFailed, "version", snap.Version), "expected", domain.SnapshotVersion)
	}

	type decoded struct {
		entry domain.SnapshotEntry
		value any
	}
	values := make([]decoded, 0, len(snap.Entries))
	for _, se := range snap.Entries {
		v, err := Decode(se.Key.Resource, se.Value)
		if err != nil {
			c.logger.Warn("skipping snapshot entry", "key", se.Key.String(), "error", err.Error())
			continue
		}
		values = append(values, decoded{entry: se, value: v})
	}

	type update struct {
		value     any
		listeners []func(any)
	}
	var updates []update

	c.mu.Lock()
	n := 0
	for _, d := range values {
		e := c.entry(d.entry.Key)
		if e.hasValue {
			continue
		}
		stored, listeners := c.store(e, d.value)
		e.fetchedAt = d.entry.FetchedAt
		updates = append(updates, update{value: stored, listeners: listeners})
		n++
	}
	c.mu.Unlock()

	for _, u := range updates {
		notify(u.listeners, u.value)
	}
	return n, nil
}
