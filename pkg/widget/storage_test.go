package widget

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct{}

func (failingBackend) Read(string) (string, bool, error) { return "", false, errors.New("disabled") }
func (failingBackend) Write(string, string) error        { return errors.New("quota exceeded") }
func (failingBackend) Remove(string) error               { return errors.New("disabled") }

func newTestStorage(now time.Time) (*Storage, *MemoryBackend) {
	backend := NewMemoryBackend()
	s := NewStorage(backend, nil)
	s.now = func() time.Time { return now }
	return s, backend
}

func TestStorage_SetGet(t *testing.T) {
	s, _ := newTestStorage(time.Now())

	s.Set("k", map[string]string{"a": "b"}, 1)

	var got map[string]string
	require.True(t, s.Get("k", &got))
	assert.Equal(t, "b", got["a"])
}

func TestStorage_ExpiredEntryIsRemoved(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s, backend := newTestStorage(now)

	s.Set("k", "v", 30)

	s.now = func() time.Time { return now.AddDate(0, 0, 30) }
	var got string
	assert.False(t, s.Get("k", &got))

	_, found, _ := backend.Read("k")
	assert.False(t, found, "expired entry should be deleted on read")
}

func TestStorage_CorruptEntryIsAbsent(t *testing.T) {
	s, backend := newTestStorage(time.Now())
	require.NoError(t, backend.Write("k", "{not json"))

	var got string
	assert.False(t, s.Get("k", &got))
	_, found, _ := backend.Read("k")
	assert.False(t, found)
}

func TestStorage_BackendFailuresDoNotPropagate(t *testing.T) {
	s := NewStorage(failingBackend{}, nil)

	assert.NotPanics(t, func() {
		s.Set("k", "v", 1)
		s.Delete("k")
	})
	var got string
	assert.False(t, s.Get("k", &got))
}

func TestStorage_Delete(t *testing.T) {
	s, _ := newTestStorage(time.Now())
	s.Set("k", "v", 1)
	s.Delete("k")

	var got string
	assert.False(t, s.Get("k", &got))
}

func TestFileBackend_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile", "storage.json")

	first := NewStorage(NewFileBackend(path), nil)
	first.Set("k", "v", 1)

	second := NewStorage(NewFileBackend(path), nil)
	var got string
	require.True(t, second.Get("k", &got))
	assert.Equal(t, "v", got)

	second.Delete("k")
	assert.False(t, first.Get("k", &got))
}

func TestFileBackend_RecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	backend := NewFileBackend(path)
	_, _, err := backend.Read("k")
	assert.ErrorIs(t, err, errCorruptFile)

	storage := NewStorage(backend, nil)
	storage.Set("k", "v", 1)

	var got string
	require.True(t, storage.Get("k", &got))
	assert.Equal(t, "v", got)
}

func TestFileBackend_RemoveResetsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("[1,2"), 0o600))

	backend := NewFileBackend(path)
	require.NoError(t, backend.Remove("k"))

	_, found, err := backend.Read("k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestVisitorIdentity_GetOrCreateIsIdempotent(t *testing.T) {
	s, _ := newTestStorage(time.Now())
	identity := NewVisitorIdentity(s)

	first := identity.GetOrCreate()
	second := identity.GetOrCreate()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)

	// a fresh instance over the same profile sees the same id
	assert.Equal(t, first, NewVisitorIdentity(s).GetOrCreate())
}

func TestVisitorIdentity_StableWhenStorageFails(t *testing.T) {
	identity := NewVisitorIdentity(NewStorage(failingBackend{}, nil))
	assert.Equal(t, identity.GetOrCreate(), identity.GetOrCreate())
}

func TestVisitorIdentity_Forget(t *testing.T) {
	s, _ := newTestStorage(time.Now())
	identity := NewVisitorIdentity(s)

	first := identity.GetOrCreate()
	identity.Forget()
	assert.NotEqual(t, first, identity.GetOrCreate())
}
