package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, key string) *FileStorage {
	t.Helper()
	s, err := NewFileStorage(t.TempDir(), key)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetRoundtrip(t *testing.T) {
	s := newTestStorage(t, "")

	require.NoError(t, s.Set("sid-1", []byte("token=tok-123"), 0))

	got, err := s.Get("sid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("token=tok-123"), got)
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStorage(t, "")

	got, err := s.Get("never-set")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExpiredEntryIsGone(t *testing.T) {
	s := newTestStorage(t, "")

	require.NoError(t, s.Set("sid-1", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	got, err := s.Get("sid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete(t *testing.T) {
	s := newTestStorage(t, "")

	require.NoError(t, s.Set("sid-1", []byte("v"), 0))
	require.NoError(t, s.Delete("sid-1"))
	require.NoError(t, s.Delete("sid-1")) // idempotent

	got, err := s.Get("sid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReset(t *testing.T) {
	s := newTestStorage(t, "")

	require.NoError(t, s.Set("sid-1", []byte("v1"), 0))
	require.NoError(t, s.Set("sid-2", []byte("v2"), 0))
	require.NoError(t, s.Reset())

	for _, key := range []string{"sid-1", "sid-2"} {
		got, err := s.Get(key)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestEncryptionAtRest(t *testing.T) {
	dir := t.TempDir()
	key := strings.Repeat("k", 32)
	s, err := NewFileStorage(dir, key)
	require.NoError(t, err)
	defer s.Close()

	secret := []byte("token=tok-secret-value")
	require.NoError(t, s.Set("sid-1", secret, 0))

	// The plaintext never touches disk.
	matches, err := filepath.Glob(filepath.Join(dir, "*.session"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok-secret-value")

	got, err := s.Get("sid-1")
	require.NoError(t, err)
	assert.Equal(t, secret, got)
}

func TestWrongKeyFailsToOpen(t *testing.T) {
	dir := t.TempDir()

	writer, err := NewFileStorage(dir, strings.Repeat("a", 32))
	require.NoError(t, err)
	require.NoError(t, writer.Set("sid-1", []byte("v"), 0))
	writer.Close()

	reader, err := NewFileStorage(dir, strings.Repeat("b", 32))
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.Get("sid-1")
	assert.Error(t, err)
}

func TestBadKeyLength(t *testing.T) {
	_, err := NewFileStorage(t.TempDir(), "too-short")
	assert.Error(t, err)
}

func TestKeysDoNotLeakIntoFilenames(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir, "")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("../escape-attempt", []byte("v"), 0))

	matches, err := filepath.Glob(filepath.Join(dir, "*.session"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.NotContains(t, filepath.Base(matches[0]), "escape")
}
