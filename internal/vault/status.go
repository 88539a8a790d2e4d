package vault

import (
	"context"
	"fmt"
)

// State classifies what a Vault holds.
type State int

const (
	// StateEmpty means no credential blob is stored.
	StateEmpty State = iota
	// StatePopulated means the blob decrypts with the stored key.
	StatePopulated
	// StateUnreadable means a blob exists but the key is missing, unusable,
	// or doesn't match. Get returns zero-value credentials in this state.
	StateUnreadable
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateUnreadable:
		return "unreadable"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is the result of Inspect.
type Status struct {
	State       State  `json:"state"`
	KeyPresent  bool   `json:"key_present"`
	BlobPresent bool   `json:"blob_present"`
	Detail      string `json:"detail,omitempty"`
}

// Inspect reports the vault state without modifying the store. Unlike Get it
// never generates a key, and it tells "never configured" apart from
// "configured but unrecoverable".
func (v *Vault) Inspect(ctx context.Context) (Status, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	slots, err := v.store.Get(ctx, KeySlot, DataSlot)
	if err != nil {
		return Status{}, fmt.Errorf("inspect credentials: %w: %w", ErrStorage, err)
	}

	rawKey, keyPresent := slots[KeySlot]
	rawBlob, blobPresent := slots[DataSlot]
	st := Status{KeyPresent: keyPresent, BlobPresent: blobPresent}

	switch {
	case !blobPresent:
		st.State = StateEmpty
		return st, nil
	case !keyPresent:
		st.State = StateUnreadable
		st.Detail = "encryption key is missing"
		return st, nil
	}

	key, err := importKey(rawKey)
	if err != nil {
		st.State = StateUnreadable
		st.Detail = err.Error()
		return st, nil
	}

	if _, err := decryptCredentials(key, rawBlob); err != nil {
		st.State = StateUnreadable
		st.Detail = err.Error()
		return st, nil
	}

	st.State = StatePopulated
	return st, nil
}
