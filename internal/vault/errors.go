package vault

import "errors"

// Error kinds. Failures are wrapped as "<op>: <kind>: <cause>" so callers can
// match the kind with errors.Is and still read the underlying message.
var (
	// ErrKeyImport means the stored key record could not be used. The vault
	// recovers by generating a new key; it never reaches callers.
	ErrKeyImport = errors.New("key import failed")
	// ErrEncryption covers key generation, serialization and sealing failures.
	ErrEncryption = errors.New("encryption failed")
	// ErrDecryption means the blob could not be opened with the current key.
	// Get swallows it and returns zero-value credentials.
	ErrDecryption = errors.New("decryption failed")
	// ErrStorage wraps read and write failures of the underlying store.
	ErrStorage = errors.New("storage error")
)
