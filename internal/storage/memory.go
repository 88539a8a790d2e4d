package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps slots in process memory. Nothing survives Close.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, names ...string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(names))
	for _, name := range names {
		if v, ok := s.slots[name]; ok {
			out[name] = copyBytes(v)
		}
	}
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, items map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, v := range items {
		s.slots[name] = copyBytes(v)
	}
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range names {
		delete(s.slots, name)
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func copyBytes(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
