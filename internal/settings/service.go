// Package settings is the single owner of the assistant settings used by the
// CLI. It loads them from the vault, applies validated partial updates, and
// migrates settings written in the old plaintext format.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/semmy-space/pinechat/internal/storage"
	"github.com/semmy-space/pinechat/internal/vault"
)

// LegacySlot holds settings saved as plaintext JSON before encryption was added
const LegacySlot = "pineconeSettings"

// Patch is a partial settings update. Nil fields keep their current value.
type Patch struct {
	APIKey      *string
	HostURL     *string
	AssistantID *string
	DarkMode    *bool
}

// Apply returns c with the non-nil fields of p applied.
func (p Patch) Apply(c vault.Credentials) vault.Credentials {
	if p.APIKey != nil {
		c.APIKey = *p.APIKey
	}
	if p.HostURL != nil {
		c.HostURL = *p.HostURL
	}
	if p.AssistantID != nil {
		c.AssistantID = *p.AssistantID
	}
	if p.DarkMode != nil {
		c.DarkMode = *p.DarkMode
	}
	return c
}

// Service serializes read-modify-write updates of the stored settings.
type Service struct {
	mu    sync.Mutex
	vault *vault.Vault
	store storage.Store
	log   zerolog.Logger
}

// NewService creates a Service. store must be the store backing v; it is
// used only for the legacy slot.
func NewService(v *vault.Vault, store storage.Store, log zerolog.Logger) *Service {
	return &Service{
		vault: v,
		store: store,
		log:   log.With().Str("component", "settings").Logger(),
	}
}

// Vault exposes the underlying vault for status and clear operations.
func (s *Service) Vault() *vault.Vault {
	return s.vault
}

// Load returns the current settings. If the vault can't be read it falls
// back to legacy plaintext settings, and returns the vault error only when
// those are unavailable too.
func (s *Service) Load(ctx context.Context) (vault.Credentials, error) {
	creds, err := s.vault.Get(ctx)
	if err == nil {
		return creds, nil
	}

	legacy, ok, lerr := s.readLegacy(ctx)
	if lerr != nil || !ok {
		return vault.Credentials{}, err
	}

	s.log.Warn().Err(err).Msg("encrypted settings unavailable, using legacy settings")
	return legacy, nil
}

// Update merges p onto the current settings, validates the result and saves it.
func (s *Service) Update(ctx context.Context, p Patch) (vault.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Load(ctx)
	if err != nil {
		return vault.Credentials{}, err
	}

	next := normalize(p.Apply(current))
	if err := Validate(next); err != nil {
		return vault.Credentials{}, err
	}

	if err := s.vault.Save(ctx, next); err != nil {
		return vault.Credentials{}, err
	}
	return next, nil
}

// SetDarkMode toggles the dark mode preference and saves the other fields
// unchanged, even when they are incomplete.
func (s *Service) SetDarkMode(ctx context.Context, on bool) (vault.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Load(ctx)
	if err != nil {
		return vault.Credentials{}, err
	}

	current.DarkMode = on
	if err := s.vault.Save(ctx, current); err != nil {
		return vault.Credentials{}, err
	}
	return current, nil
}

// MigrateLegacy moves legacy plaintext settings into the vault and deletes
// the plaintext copy. Settings already readable from the vault win; the
// legacy copy is then just deleted. Reports whether anything was imported.
func (s *Service) MigrateLegacy(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	legacy, ok, err := s.readLegacy(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	st, err := s.vault.Inspect(ctx)
	if err != nil {
		return false, err
	}

	imported := false
	if st.State == vault.StatePopulated {
		s.log.Info().Msg("encrypted settings already present, discarding legacy settings")
	} else {
		if err := s.vault.Save(ctx, normalize(legacy)); err != nil {
			return false, err
		}
		imported = true
	}

	if err := s.store.Remove(ctx, LegacySlot); err != nil {
		return imported, fmt.Errorf("remove legacy settings: %w", err)
	}

	s.log.Debug().Bool("imported", imported).Msg("legacy settings migrated")
	return imported, nil
}

// readLegacy returns the legacy plaintext settings and whether they exist.
func (s *Service) readLegacy(ctx context.Context) (vault.Credentials, bool, error) {
	slots, err := s.store.Get(ctx, LegacySlot)
	if err != nil {
		return vault.Credentials{}, false, fmt.Errorf("read legacy settings: %w", err)
	}

	raw, ok := slots[LegacySlot]
	if !ok {
		return vault.Credentials{}, false, nil
	}

	var creds vault.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return vault.Credentials{}, false, fmt.Errorf("parse legacy settings: %w", err)
	}
	return creds, true, nil
}
