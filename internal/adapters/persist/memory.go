package persist

import (
	"context"
	"sync"

	"go.trai.ch/stashsync/internal/core/domain"
)

// MemoryStore keeps the last snapshot in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the last saved snapshot.
func (s *MemoryStore) Load(_ context.Context) (*domain.CacheSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return nil, nil
	}
	return decode(s.data)
}

// Save stores a copy of snap.
func (s *MemoryStore) Save(_ context.Context, snap *domain.CacheSnapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
