package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semmy-space/pinechat/internal/storage"
)

// faultyStore wraps a MemoryStore and fails selected operations.
type faultyStore struct {
	*storage.MemoryStore
	getErr    error
	setErr    error
	removeErr error
}

func (s *faultyStore) Get(ctx context.Context, names ...string) (map[string][]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.MemoryStore.Get(ctx, names...)
}

func (s *faultyStore) Set(ctx context.Context, items map[string][]byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, items)
}

func (s *faultyStore) Remove(ctx context.Context, names ...string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	return s.MemoryStore.Remove(ctx, names...)
}

// failingReader errors on every read.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func newTestVault(t *testing.T) (*Vault, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return New(store), store
}

func readSlot(t *testing.T, store storage.Store, name string) []byte {
	t.Helper()
	slots, err := store.Get(context.Background(), name)
	require.NoError(t, err)
	return slots[name]
}

func TestSaveThenGetRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
	}{
		{
			name:  "typical",
			creds: Credentials{APIKey: "pcsk_abc", HostURL: "https://host.example", AssistantID: "asst-1", DarkMode: true},
		},
		{
			name:  "dark mode off",
			creds: Credentials{APIKey: "pcsk_xyz", HostURL: "https://prod-1-data.ke.pinecone.io", AssistantID: "docs"},
		},
		{
			name:  "unicode and empty fields",
			creds: Credentials{APIKey: "clé-🔑", HostURL: "", AssistantID: "助手"},
		},
		{
			name:  "all zero",
			creds: Credentials{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newTestVault(t)
			ctx := context.Background()

			require.NoError(t, v.Save(ctx, tt.creds))

			got, err := v.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.creds, got)
		})
	}
}

func TestGetOnFreshStoreReturnsDefaults(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	has, err := v.Has(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	got, err := v.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credentials{APIKey: "", HostURL: "", AssistantID: "", DarkMode: false}, got)
	assert.True(t, got.IsZero())
}

func TestGetCreatesKeyLazily(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	assert.Nil(t, readSlot(t, store, KeySlot))

	_, err := v.Get(ctx)
	require.NoError(t, err)

	raw := readSlot(t, store, KeySlot)
	require.NotNil(t, raw)
	_, err = importKey(raw)
	assert.NoError(t, err)
}

func TestSaveReusesKey(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, v.Save(ctx, Credentials{APIKey: "pcsk_1"}))
	first := readSlot(t, store, KeySlot)

	require.NoError(t, v.Save(ctx, Credentials{APIKey: "pcsk_2"}))
	second := readSlot(t, store, KeySlot)

	assert.Equal(t, first, second)
}

func TestSaveUsesFreshIV(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()
	creds := Credentials{APIKey: "pcsk_abc", HostURL: "https://host.example", AssistantID: "asst-1"}

	require.NoError(t, v.Save(ctx, creds))
	first := readSlot(t, store, DataSlot)

	require.NoError(t, v.Save(ctx, creds))
	second := readSlot(t, store, DataSlot)

	assert.NotEqual(t, first, second)

	var b1, b2 blob
	require.NoError(t, json.Unmarshal(first, &b1))
	require.NoError(t, json.Unmarshal(second, &b2))
	assert.Len(t, b1.IV, ivSize)
	assert.Len(t, b2.IV, ivSize)
	assert.NotEqual(t, b1.IV, b2.IV)
	assert.NotEqual(t, b1.Data, b2.Data)
}

func TestStoredBlobLayout(t *testing.T) {
	v, store := newTestVault(t)
	require.NoError(t, v.Save(context.Background(), Credentials{APIKey: "pcsk_abc"}))

	var layout map[string]any
	require.NoError(t, json.Unmarshal(readSlot(t, store, DataSlot), &layout))
	assert.Len(t, layout, 2)

	iv, ok := layout["iv"].([]any)
	require.True(t, ok, "iv should be a JSON array")
	assert.Len(t, iv, ivSize)
	_, ok = layout["data"].([]any)
	assert.True(t, ok, "data should be a JSON array")

	assert.NotContains(t, string(readSlot(t, store, DataSlot)), "pcsk_abc")

	var jwk map[string]any
	require.NoError(t, json.Unmarshal(readSlot(t, store, KeySlot), &jwk))
	assert.Equal(t, "oct", jwk["kty"])
	assert.Equal(t, "A256GCM", jwk["alg"])
}

func TestClear(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, v.Save(ctx, Credentials{APIKey: "pcsk_abc", DarkMode: true}))
	oldKey := readSlot(t, store, KeySlot)

	require.NoError(t, v.Clear(ctx))

	assert.Nil(t, readSlot(t, store, KeySlot))
	assert.Nil(t, readSlot(t, store, DataSlot))

	has, err := v.Has(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	got, err := v.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	// A later save regenerates the key
	require.NoError(t, v.Save(ctx, Credentials{APIKey: "pcsk_new"}))
	assert.NotEqual(t, oldKey, readSlot(t, store, KeySlot))
}

func TestClearOnEmptyStore(t *testing.T) {
	v, _ := newTestVault(t)
	assert.NoError(t, v.Clear(context.Background()))
}

func TestCorruptedKeyResilience(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
	}{
		{name: "not json", key: []byte("definitely not a key")},
		{name: "empty object", key: []byte(`{}`)},
		{name: "wrong key type", key: []byte(`{"kty":"EC","crv":"P-256"}`)},
		{name: "short oct key", key: []byte(`{"kty":"oct","k":"AAAA"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf bytes.Buffer
			store := storage.NewMemoryStore()
			v := New(store, WithLogger(zerolog.New(&logBuf)))
			ctx := context.Background()

			require.NoError(t, v.Save(ctx, Credentials{APIKey: "pcsk_abc", HostURL: "https://host.example"}))
			require.NoError(t, store.Set(ctx, map[string][]byte{KeySlot: tt.key}))

			got, err := v.Get(ctx)
			require.NoError(t, err)
			assert.True(t, got.IsZero())

			// The blob survives, so Has still reports true
			has, err := v.Has(ctx)
			require.NoError(t, err)
			assert.True(t, has)

			// The key was replaced with a usable one
			_, err = importKey(readSlot(t, store, KeySlot))
			assert.NoError(t, err)

			assert.Contains(t, logBuf.String(), "stored key is unusable")
			assert.Contains(t, logBuf.String(), "failed to decrypt credentials")

			st, err := v.Inspect(ctx)
			require.NoError(t, err)
			assert.Equal(t, StateUnreadable, st.State)
		})
	}
}

func TestCorruptedBlobReturnsDefaults(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{name: "not json", blob: []byte("garbage")},
		{name: "short iv", blob: []byte(`{"iv":[1,2,3],"data":[4,5,6]}`)},
		{name: "tampered data", blob: []byte(`{"iv":[0,0,0,0,0,0,0,0,0,0,0,0],"data":[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17]}`)},
		{name: "byte out of range", blob: []byte(`{"iv":[256,0,0,0,0,0,0,0,0,0,0,0],"data":[]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, store := newTestVault(t)
			ctx := context.Background()

			require.NoError(t, v.Save(ctx, Credentials{APIKey: "pcsk_abc"}))
			require.NoError(t, store.Set(ctx, map[string][]byte{DataSlot: tt.blob}))

			got, err := v.Get(ctx)
			require.NoError(t, err)
			assert.True(t, got.IsZero())
		})
	}
}

func TestSaveErrors(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("disk full")

	t.Run("key write failure is a storage error", func(t *testing.T) {
		v := New(&faultyStore{MemoryStore: storage.NewMemoryStore(), setErr: storeErr})
		err := v.Save(ctx, Credentials{APIKey: "pcsk_abc"})
		require.ErrorIs(t, err, ErrStorage)
		assert.ErrorIs(t, err, storeErr)
		assert.Contains(t, err.Error(), "save credentials")
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("blob write failure is a storage error", func(t *testing.T) {
		store := &faultyStore{MemoryStore: storage.NewMemoryStore()}
		v := New(store)
		require.NoError(t, v.Save(ctx, Credentials{}))

		store.setErr = storeErr
		err := v.Save(ctx, Credentials{APIKey: "pcsk_abc"})
		require.ErrorIs(t, err, ErrStorage)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("read failure is a storage error", func(t *testing.T) {
		v := New(&faultyStore{MemoryStore: storage.NewMemoryStore(), getErr: storeErr})
		err := v.Save(ctx, Credentials{})
		assert.ErrorIs(t, err, ErrStorage)
	})

	t.Run("randomness failure is an encryption error", func(t *testing.T) {
		v := New(storage.NewMemoryStore(), WithRandom(failingReader{}))
		err := v.Save(ctx, Credentials{APIKey: "pcsk_abc"})
		require.ErrorIs(t, err, ErrEncryption)
		assert.Contains(t, err.Error(), "entropy exhausted")
	})

	t.Run("IV failure with an existing key is an encryption error", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, New(store).Save(ctx, Credentials{}))

		v := New(store, WithRandom(failingReader{}))
		err := v.Save(ctx, Credentials{APIKey: "pcsk_abc"})
		require.ErrorIs(t, err, ErrEncryption)
		assert.Contains(t, err.Error(), "failed to generate IV")
	})
}

func TestGetErrors(t *testing.T) {
	ctx := context.Background()

	v := New(&faultyStore{MemoryStore: storage.NewMemoryStore(), getErr: errors.New("io error")})
	got, err := v.Get(ctx)
	require.ErrorIs(t, err, ErrStorage)
	assert.True(t, got.IsZero())

	_, err = v.Has(ctx)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestClearError(t *testing.T) {
	v := New(&faultyStore{MemoryStore: storage.NewMemoryStore(), removeErr: errors.New("read-only")})
	err := v.Clear(context.Background())
	require.ErrorIs(t, err, ErrStorage)
	assert.Contains(t, err.Error(), "read-only")
}

func TestInspect(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh store is empty and stays untouched", func(t *testing.T) {
		v, store := newTestVault(t)
		st, err := v.Inspect(ctx)
		require.NoError(t, err)
		assert.Equal(t, Status{State: StateEmpty}, st)
		assert.Nil(t, readSlot(t, store, KeySlot))
	})

	t.Run("key without blob is empty", func(t *testing.T) {
		v, _ := newTestVault(t)
		_, err := v.Get(ctx)
		require.NoError(t, err)

		st, err := v.Inspect(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateEmpty, st.State)
		assert.True(t, st.KeyPresent)
	})

	t.Run("saved credentials are populated", func(t *testing.T) {
		v, _ := newTestVault(t)
		require.NoError(t, v.Save(ctx, Credentials{APIKey: "pcsk_abc"}))

		st, err := v.Inspect(ctx)
		require.NoError(t, err)
		assert.Equal(t, Status{State: StatePopulated, KeyPresent: true, BlobPresent: true}, st)
	})

	t.Run("blob without key is unreadable", func(t *testing.T) {
		v, store := newTestVault(t)
		require.NoError(t, v.Save(ctx, Credentials{APIKey: "pcsk_abc"}))
		require.NoError(t, store.Remove(ctx, KeySlot))

		st, err := v.Inspect(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateUnreadable, st.State)
		assert.Equal(t, "encryption key is missing", st.Detail)
	})

	t.Run("mismatched key is unreadable", func(t *testing.T) {
		v, store := newTestVault(t)
		require.NoError(t, v.Save(ctx, Credentials{APIKey: "pcsk_abc"}))

		other := storage.NewMemoryStore()
		_, err := New(other).Get(ctx)
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, map[string][]byte{KeySlot: readSlot(t, other, KeySlot)}))

		st, err := v.Inspect(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateUnreadable, st.State)
		assert.Contains(t, st.Detail, ErrDecryption.Error())
	})
}

func TestStateMarshalsByName(t *testing.T) {
	out, err := json.Marshal(Status{State: StateUnreadable, BlobPresent: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"unreadable","key_present":false,"blob_present":true}`, string(out))
	assert.Equal(t, "State(9)", State(9).String())
}

func TestConcurrentSavesKeepKeyAndBlobPaired(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, v.Save(ctx, Credentials{APIKey: "pcsk_abc", DarkMode: i%2 == 0}))
		}(i)
	}
	wg.Wait()

	got, err := v.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pcsk_abc", got.APIKey)

	st, err := v.Inspect(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatePopulated, st.State)
}

func TestCredentialsStringMasksKey(t *testing.T) {
	c := Credentials{APIKey: "pcsk_secret1234", HostURL: "https://host.example", AssistantID: "asst-1"}
	s := c.String()
	assert.NotContains(t, s, "pcsk_secret")
	assert.Contains(t, s, "****1234")
	assert.Contains(t, s, "asst-1")
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{name: "empty string", value: "", expected: ""},
		{name: "1 char", value: "a", expected: "****"},
		{name: "4 chars", value: "abcd", expected: "****"},
		{name: "5 chars", value: "abcde", expected: "****bcde"},
		{name: "long string", value: "pcsk_secret-12345", expected: "****2345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskSecret(tt.value))
		})
	}
}
