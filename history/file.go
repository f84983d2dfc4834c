package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/types"
)

const (
	lockRetryInterval = 20 * time.Millisecond
	lockTimeout       = 5 * time.Second
	// a lock file older than this was left behind by a crashed process
	staleLockAge = 10 * time.Second
)

// FileStore keeps the history as one JSON array in a file, replaced atomically on every write.
// Writers in other processes are excluded through a sibling "<path>.lock" file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) []types.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() []types.HistoryEntry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			warnCorrupt(s.path, err)
		}
		return []types.HistoryEntry{}
	}
	entries, err := decode(data)
	if err != nil {
		warnCorrupt(s.path, err)
		return []types.HistoryEntry{}
	}
	if entries == nil {
		return []types.HistoryEntry{}
	}
	return entries
}

func (s *FileStore) Append(ctx context.Context, entry types.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := encode(prepend(s.load(), entry))
	if err != nil {
		return fmt.Errorf("failed to encode history: %v", err)
	}
	return s.writeAtomic(data)
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove history: %v", err)
	}
	return nil
}

// lock creates the lock file exclusively, waiting while another process holds it.
func (s *FileStore) lock(ctx context.Context) (func(), error) {
	lockPath := s.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history folder: %v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			return func() {
				if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
					tool.DefaultLogger.Warnf("Failed to release history lock %s: %v", lockPath, err)
				}
			}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to lock history: %v", err)
		}
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			tool.DefaultLogger.Warnf("Removing stale history lock %s", lockPath)
			_ = os.Remove(lockPath)
			continue
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to lock history: %s is held by another process", lockPath)
		case <-time.After(lockRetryInterval):
		}
	}
}

// writeAtomic writes to a sibling temp file and renames it over the record.
func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history folder: %v", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write history: %v", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history: %v", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history: %v", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace history: %v", err)
	}
	return nil
}
