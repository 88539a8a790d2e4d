package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
)

// KeyringStore implements Store using the OS keyring, one item per slot.
// The keyring has no transactions, so a multi-slot Set or Remove that fails
// part way can leave some slots updated.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore opens the platform keyring for the pinechat service.
// Returns an error if the keyring is unavailable on this platform.
func NewKeyringStore(dataDir string) (*KeyringStore, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	cfg := keyring.Config{
		ServiceName:              ServiceName,
		KeychainTrustApplication: true, // macOS: don't prompt every access
		FileDir:                  filepath.Join(dataDir, "keyring"),
		FilePasswordFunc:         keyring.TerminalPrompt,
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}

	return &KeyringStore{ring: ring}, nil
}

// NewKeyringStoreFrom wraps an already opened keyring.
func NewKeyringStoreFrom(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// Get reads each named slot from the keyring.
func (s *KeyringStore) Get(ctx context.Context, names ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item, err := s.ring.Get(name)
		if err != nil {
			if errors.Is(err, keyring.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("keyring get %q failed: %w", name, err)
		}
		out[name] = item.Data
	}
	return out, nil
}

// Set stores each item in the keyring.
func (s *KeyringStore) Set(ctx context.Context, items map[string][]byte) error {
	for name, value := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		item := keyring.Item{
			Key:   name,
			Data:  value,
			Label: ServiceName + " " + name,
		}
		if err := s.ring.Set(item); err != nil {
			return fmt.Errorf("keyring set %q failed: %w", name, err)
		}
	}
	return nil
}

// Remove deletes each named slot, ignoring ones that are already gone.
func (s *KeyringStore) Remove(ctx context.Context, names ...string) error {
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.ring.Remove(name); err != nil {
			if errors.Is(err, keyring.ErrKeyNotFound) {
				continue
			}
			return fmt.Errorf("keyring delete %q failed: %w", name, err)
		}
	}
	return nil
}

func (s *KeyringStore) Close() error { return nil }
