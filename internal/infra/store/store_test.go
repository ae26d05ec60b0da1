package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "radiobox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_GetMissingKey(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get("radio_volume")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SetAndGet(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set("radio_volume", "0.7"))

	v, ok, err := s.Get("radio_volume")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.7", v)
}

func TestStore_SetOverwrites(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set("radio_volume", "0.7"))
	require.NoError(t, s.Set("radio_volume", "0.3"))

	v, ok, err := s.Get("radio_volume")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.3", v)
}

func TestStore_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "radiobox.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("radio_volume", "1"))
}
