package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
)

const (
	fileName       = "store.json"
	lockTimeout    = 10 * time.Second
	lockRetryDelay = 100 * time.Millisecond
)

// FileStore implements Store as one JSON document on disk.
// Every operation holds a file lock so separate processes sharing the
// data directory see each multi-slot write as a unit.
type FileStore struct {
	mu       sync.Mutex
	path     string
	lockPath string
}

// DefaultDataDir returns the XDG data directory for pinechat
// Typically ~/.local/share/pinechat/ on Linux
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, "pinechat")
}

// NewFileStore creates a file-backed store in dir, or in DefaultDataDir when dir is empty.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultDataDir()
	}

	// Create data directory with 0700 permissions
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dir, fileName)
	return &FileStore{
		path:     path,
		lockPath: path + ".lock",
	}, nil
}

// Path returns the location of the store document.
func (s *FileStore) Path() string {
	return s.path
}

// withLock runs fn while holding the in-process mutex and the file lock.
// Readers take a shared lock, writers an exclusive one.
func (s *FileStore) withLock(ctx context.Context, shared bool, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := flock.New(s.lockPath)
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if shared {
		locked, err = lock.TryRLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: timeout")
	}
	defer lock.Unlock()

	return fn()
}

// readSlots parses the store document.
// Returns an empty map if the file doesn't exist.
func (s *FileStore) readSlots() (map[string][]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]byte), nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if len(data) == 0 {
		return make(map[string][]byte), nil
	}

	var slots map[string][]byte
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	if slots == nil {
		slots = make(map[string][]byte)
	}

	return slots, nil
}

// writeSlots replaces the store document via a temp file and rename.
func (s *FileStore) writeSlots(slots map[string][]byte) error {
	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set store file permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close store file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	return nil
}

// Get reads the named slots from the store document.
func (s *FileStore) Get(ctx context.Context, names ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(names))
	err := s.withLock(ctx, true, func() error {
		slots, err := s.readSlots()
		if err != nil {
			return err
		}
		for _, name := range names {
			if v, ok := slots[name]; ok {
				out[name] = v
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set writes all items to the store document in a single replace.
func (s *FileStore) Set(ctx context.Context, items map[string][]byte) error {
	return s.withLock(ctx, false, func() error {
		slots, err := s.readSlots()
		if err != nil {
			return err
		}
		for name, v := range items {
			slots[name] = v
		}
		return s.writeSlots(slots)
	})
}

// Remove deletes the named slots in a single replace.
func (s *FileStore) Remove(ctx context.Context, names ...string) error {
	return s.withLock(ctx, false, func() error {
		slots, err := s.readSlots()
		if err != nil {
			return err
		}

		changed := false
		for _, name := range names {
			if _, ok := slots[name]; ok {
				delete(slots, name)
				changed = true
			}
		}
		if !changed {
			return nil
		}
		return s.writeSlots(slots)
	})
}

func (s *FileStore) Close() error { return nil }
