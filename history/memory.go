package history

import (
	"context"
	"sync"

	"github.com/moyoez/shareit-go/types"
)

// MemoryStore keeps history for the life of the process only.
type MemoryStore struct {
	mu      sync.Mutex
	entries []types.HistoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) []types.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *MemoryStore) Append(ctx context.Context, entry types.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = prepend(s.entries, entry)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
