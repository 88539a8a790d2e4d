package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	jose "github.com/go-jose/go-jose/v4"
)

const (
	keySize = 32 // AES-256
	ivSize  = 12 // AES-GCM standard nonce
)

// blob is the on-disk form of the encrypted credentials.
type blob struct {
	IV   byteList `json:"iv"`
	Data byteList `json:"data"`
}

// byteList encodes bytes as a JSON array of numbers rather than base64,
// matching records written by WebCrypto-based clients.
type byteList []byte

func (b byteList) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, len(b)*4+2)
	out = append(out, '[')
	for i, c := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(c), 10)
	}
	return append(out, ']'), nil
}

func (b *byteList) UnmarshalJSON(data []byte) error {
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return err
	}

	out := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return fmt.Errorf("byte value %d out of range", n)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}

// generateKey reads a fresh AES-256 key from r.
func generateKey(r io.Reader) ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// exportKey serializes key as an oct JSON Web Key.
func exportKey(key []byte) ([]byte, error) {
	jwk := jose.JSONWebKey{
		Key:       key,
		Algorithm: string(jose.A256GCM),
		Use:       "enc",
	}
	return json.Marshal(jwk)
}

// importKey parses a JSON Web Key produced by exportKey or by WebCrypto's
// exportKey("jwk"). Anything but a 256-bit oct key for A256GCM is rejected.
func importKey(raw []byte) ([]byte, error) {
	var jwk jose.JSONWebKey
	if err := json.Unmarshal(raw, &jwk); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyImport, err)
	}

	key, ok := jwk.Key.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: key type %T is not symmetric", ErrKeyImport, jwk.Key)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: key is %d bytes, want %d", ErrKeyImport, len(key), keySize)
	}
	if jwk.Algorithm != "" && jwk.Algorithm != string(jose.A256GCM) {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrKeyImport, jwk.Algorithm)
	}

	return key, nil
}

// seal encrypts plaintext under key with a fresh random IV from r.
func seal(r io.Reader, key, plaintext []byte) (*blob, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(r, iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	return &blob{
		IV:   iv,
		Data: gcm.Seal(nil, iv, plaintext, nil),
	}, nil
}

// open decrypts b under key.
func open(key []byte, b *blob) ([]byte, error) {
	if len(b.IV) != ivSize {
		return nil, fmt.Errorf("IV is %d bytes, want %d", len(b.IV), ivSize)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, b.IV, b.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("gcm.Open: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
