package anchorstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algobucks/platform/internal/session/anchorstore"
)

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "anchors.json")
}

func TestSetIsWriteOnce(t *testing.T) {
	store := anchorstore.Open(storePath(t))

	require.NoError(t, store.Set("contestTimerStartedAt::abc", "1700000000000"))
	require.NoError(t, store.Set("contestTimerStartedAt::abc", "9999999999999"))

	got, ok := store.Get("contestTimerStartedAt::abc")
	require.True(t, ok)
	assert.Equal(t, "1700000000000", got, "second Set must not move the anchor")
}

func TestForceOverwrites(t *testing.T) {
	store := anchorstore.Open(storePath(t))

	require.NoError(t, store.Set("k", "old"))
	require.NoError(t, store.Force("k", "new"))

	got, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestDelete(t *testing.T) {
	store := anchorstore.Open(storePath(t))

	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, store.Delete("k"))

	_, ok := store.Get("k")
	assert.False(t, ok)

	assert.NoError(t, store.Delete("never-existed"))
}

func TestValuesSurviveReopen(t *testing.T) {
	path := storePath(t)

	first := anchorstore.Open(path)
	require.NoError(t, first.Set("a", "1"))
	require.NoError(t, first.Set("b", "2"))

	second := anchorstore.Open(path)
	got, ok := second.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", got)
	got, ok = second.Get("b")
	require.True(t, ok)
	assert.Equal(t, "2", got)
}

func TestCorruptFileBehavesLikeEmpty(t *testing.T) {
	path := storePath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := anchorstore.Open(path)
	_, ok := store.Get("anything")
	assert.False(t, ok)

	// Writes recover the file.
	require.NoError(t, store.Set("k", "v"))
	got, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestMissingFileBehavesLikeEmpty(t *testing.T) {
	store := anchorstore.Open(filepath.Join(t.TempDir(), "deep", "nested", "anchors.json"))

	_, ok := store.Get("anything")
	assert.False(t, ok)

	// Set creates the parent directories on first save.
	require.NoError(t, store.Set("k", "v"))
	got, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}
