// Package persist stores dehydrated cache snapshots between runs.
package persist

import (
	"encoding/json"
	"net/url"
	"path/filepath"
	"strings"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/zerr"
)

// Open returns the snapshot store selected by dsn. An empty dsn keeps
// snapshots in memory only.
func Open(dsn string) (ports.SnapshotStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return NewMemoryStore(), nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrUnsupportedBackend.Error()), "dsn", dsn)
	}

	switch strings.ToLower(u.Scheme) {
	case "memory", "mem":
		return NewMemoryStore(), nil
	case "file":
		path := u.Path
		if u.Host != "" {
			path = filepath.Join(u.Host, u.Path)
		}
		if path == "" {
			return nil, zerr.With(zerr.New("file dsn has no path"), "dsn", dsn)
		}
		return NewFileStore(path), nil
	case "postgres", "postgresql":
		return NewPostgresStore(dsn)
	default:
		return nil, zerr.With(domain.ErrUnsupportedBackend, "dsn", dsn)
	}
}

func encode(snap *domain.CacheSnapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error())
	}
	return data, nil
}

func decode(data []byte) (*domain.CacheSnapshot, error) {
	var snap domain.CacheSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, zerr.Wrap(err, domain.ErrSnapshotReadFailed.Error())
	}
	return &snap, nil
}
