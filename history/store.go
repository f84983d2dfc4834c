// Package history keeps the bounded, most-recent-first log of finished transfers.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/types"
)

// MaxEntries is the number of entries kept; appending beyond it evicts the oldest.
const MaxEntries = 10

// TimeFormat is the layout of HistoryEntry.Time.
const TimeFormat = "2006-01-02 15:04:05"

// Store persists history entries. Load never fails: a missing or unreadable record is empty.
// Append is a single read-modify-write unit.
type Store interface {
	Load(ctx context.Context) []types.HistoryEntry
	Append(ctx context.Context, entry types.HistoryEntry) error
	Clear(ctx context.Context) error
}

// NewEntry stamps an entry with t in TimeFormat.
func NewEntry(kind types.HistoryType, name string, t time.Time) types.HistoryEntry {
	return types.HistoryEntry{Type: kind, Name: name, Time: t.Format(TimeFormat)}
}

// prepend puts entry first and truncates to MaxEntries without touching the input slice.
func prepend(entries []types.HistoryEntry, entry types.HistoryEntry) []types.HistoryEntry {
	out := make([]types.HistoryEntry, 0, min(len(entries)+1, MaxEntries))
	out = append(out, entry)
	for _, e := range entries {
		if len(out) == MaxEntries {
			break
		}
		out = append(out, e)
	}
	return out
}

func decode(data []byte) ([]types.HistoryEntry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var entries []types.HistoryEntry
	if err := sonic.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history record: %v", err)
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return entries, nil
}

func encode(entries []types.HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	return sonic.Marshal(entries)
}

// Open builds the store selected by cfg.
func Open(cfg types.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path), nil
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

func warnCorrupt(where string, err error) {
	tool.DefaultLogger.Warnf("History record %s is unreadable, treating it as empty: %v", where, err)
}
