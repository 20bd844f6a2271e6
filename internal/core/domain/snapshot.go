package domain

import (
	"encoding/json"
	"time"
)

// SnapshotVersion is bumped whenever the persisted layout changes.
const SnapshotVersion = 1

// CacheSnapshot is the dehydrated form of the cache persisted between runs.
type CacheSnapshot struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"savedAt"`
	Entries []SnapshotEntry `json:"entries"`
}

// SnapshotEntry is one dehydrated cache entry.
type SnapshotEntry struct {
	Key       CacheKey        `json:"key"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Value     json.RawMessage `json:"value"`
}
