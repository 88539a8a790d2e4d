// Package vault keeps assistant credentials encrypted at rest.
//
// A Vault owns two slots in a storage.Store: the exported AES-256-GCM key
// and the encrypted credential blob. The key is created lazily and reused
// until Clear removes both slots together. The key sits unencrypted next to
// the blob, so this protects data at rest on disk, not against a process
// that can read the store.
package vault

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/semmy-space/pinechat/internal/storage"
)

// Slot names owned by the Vault
const (
	KeySlot  = "sss_key"
	DataSlot = "sss_data"
)

// Vault encrypts credentials into a storage.Store.
// Operations on one Vault are serialized, so a Save can't pair a new key
// with a stale blob inside this process.
type Vault struct {
	mu    sync.Mutex
	store storage.Store
	log   zerolog.Logger
	rand  io.Reader
}

// Option configures a Vault
type Option func(*Vault)

// WithLogger sets the logger used for recovered failures.
func WithLogger(log zerolog.Logger) Option {
	return func(v *Vault) {
		v.log = log.With().Str("component", "vault").Logger()
	}
}

// WithRandom replaces the source of key and IV bytes. Defaults to crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(v *Vault) {
		v.rand = r
	}
}

// New creates a Vault over store.
func New(store storage.Store, opts ...Option) *Vault {
	v := &Vault{
		store: store,
		log:   zerolog.Nop(),
		rand:  rand.Reader,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// getOrCreateKey returns the stored key, generating and persisting a new one
// when the record is missing or unusable. Replacing an unusable key makes any
// existing blob permanently undecryptable.
func (v *Vault) getOrCreateKey(ctx context.Context) ([]byte, error) {
	slots, err := v.store.Get(ctx, KeySlot)
	if err != nil {
		return nil, fmt.Errorf("%w: read key: %w", ErrStorage, err)
	}

	if raw, ok := slots[KeySlot]; ok {
		key, err := importKey(raw)
		if err == nil {
			return key, nil
		}
		v.log.Warn().Err(err).Msg("stored key is unusable, generating a new one; previously saved credentials can no longer be decrypted")
	}

	key, err := generateKey(v.rand)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}

	raw, err := exportKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: export key: %w", ErrEncryption, err)
	}

	if err := v.store.Set(ctx, map[string][]byte{KeySlot: raw}); err != nil {
		return nil, fmt.Errorf("%w: write key: %w", ErrStorage, err)
	}

	v.log.Debug().Msg("generated new encryption key")
	return key, nil
}

// Save encrypts creds with a fresh IV and writes the blob.
// Values are stored as given; validation belongs to the caller.
func (v *Vault) Save(ctx context.Context, creds Credentials) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, err := v.getOrCreateKey(ctx)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("save credentials: %w: %w", ErrEncryption, err)
	}

	b, err := seal(v.rand, key, plaintext)
	if err != nil {
		return fmt.Errorf("save credentials: %w: %w", ErrEncryption, err)
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("save credentials: %w: %w", ErrEncryption, err)
	}

	if err := v.store.Set(ctx, map[string][]byte{DataSlot: raw}); err != nil {
		return fmt.Errorf("save credentials: %w: %w", ErrStorage, err)
	}

	return nil
}

// Get returns the saved credentials.
// A missing blob, or one that no longer decrypts with the current key,
// yields zero-value credentials and a nil error. An error is returned only
// when the key can't be obtained or the store can't be read.
func (v *Vault) Get(ctx context.Context) (Credentials, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, err := v.getOrCreateKey(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("get credentials: %w", err)
	}

	slots, err := v.store.Get(ctx, DataSlot)
	if err != nil {
		return Credentials{}, fmt.Errorf("get credentials: %w: %w", ErrStorage, err)
	}

	raw, ok := slots[DataSlot]
	if !ok {
		return Credentials{}, nil
	}

	creds, err := decryptCredentials(key, raw)
	if err != nil {
		v.log.Warn().Err(err).Msg("failed to decrypt credentials, returning empty credentials")
		return Credentials{}, nil
	}

	return creds, nil
}

// Clear removes the key and the blob in a single store operation.
// The next Save generates a new key.
func (v *Vault) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.store.Remove(ctx, KeySlot, DataSlot); err != nil {
		return fmt.Errorf("clear credentials: %w: %w", ErrStorage, err)
	}
	return nil
}

// Has reports whether a credential blob exists. It does not try to decrypt
// it, so an unreadable blob still counts.
func (v *Vault) Has(ctx context.Context) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	slots, err := v.store.Get(ctx, DataSlot)
	if err != nil {
		return false, fmt.Errorf("has credentials: %w: %w", ErrStorage, err)
	}
	_, ok := slots[DataSlot]
	return ok, nil
}

func decryptCredentials(key, raw []byte) (Credentials, error) {
	var b blob
	if err := json.Unmarshal(raw, &b); err != nil {
		return Credentials{}, fmt.Errorf("%w: parse blob: %w", ErrDecryption, err)
	}

	plaintext, err := open(key, &b)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return Credentials{}, fmt.Errorf("%w: parse credentials: %w", ErrDecryption, err)
	}
	return creds, nil
}
