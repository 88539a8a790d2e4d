package storage

import (
	"context"
	"errors"
)

// Store is a local persistent key-value store addressed by slot name.
// Values are opaque byte strings; callers own their encoding.
type Store interface {
	// Get returns the values of the named slots. Slots that do not exist
	// are absent from the result map; that is not an error.
	Get(ctx context.Context, names ...string) (map[string][]byte, error)
	// Set writes every item in one operation.
	Set(ctx context.Context, items map[string][]byte) error
	// Remove deletes the named slots. Missing slots are ignored.
	Remove(ctx context.Context, names ...string) error
	Close() error
}

// Backend names accepted by Open
const (
	BackendAuto    = "auto"
	BackendFile    = "file"
	BackendKeyring = "keyring"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// ServiceName is the service identifier for keyring storage
const ServiceName = "pinechat"

// ErrUnknownBackend is returned by Open for an unrecognised backend name
var ErrUnknownBackend = errors.New("unknown storage backend")

// Backends lists the names accepted by Open, in display order
func Backends() []string {
	return []string{BackendAuto, BackendFile, BackendKeyring, BackendSQLite, BackendMemory}
}
