package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/fragments/pkg/fragments"
	fsstorage "github.com/tendant/fragments/pkg/fragments/storage/fs"
)

func newTestStore(t *testing.T) (fragments.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := fsstorage.New(fsstorage.Config{BaseDir: dir})
	require.NoError(t, err)
	return store, dir
}

func testFragment(ownerID, id string) *fragments.Fragment {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return &fragments.Fragment{
		ID:      id,
		OwnerID: ownerID,
		Type:    "text/plain",
		Size:    5,
		Created: now,
		Updated: now,
	}
}

func TestNew(t *testing.T) {
	t.Run("requires a base directory", func(t *testing.T) {
		_, err := fsstorage.New(fsstorage.Config{})
		assert.Error(t, err)
	})

	t.Run("creates the base directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "fragments")
		_, err := fsstorage.New(fsstorage.Config{BaseDir: dir})
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestMetadataRoundTrip(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	f := testFragment("owner-a", "frag-1")
	require.NoError(t, store.WriteMetadata(ctx, f))

	// stored as <id>.json inside the owner's directory
	_, err := os.Stat(filepath.Join(dir, "owner-a", "frag-1.json"))
	require.NoError(t, err)

	got, err := store.ReadMetadata(ctx, "owner-a", "frag-1")
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestDataRoundTrip(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteData(ctx, "owner-a", "frag-1", []byte("hello")))

	_, err := os.Stat(filepath.Join(dir, "owner-a", "frag-1.data"))
	require.NoError(t, err)

	data, err := store.ReadData(ctx, "owner-a", "frag-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestReadMissing(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.ReadMetadata(ctx, "owner-a", "missing")
	assert.ErrorIs(t, err, fragments.ErrFragmentNotFound)

	_, err = store.ReadData(ctx, "owner-a", "missing")
	assert.ErrorIs(t, err, fragments.ErrFragmentNotFound)
}

func TestListIDs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	t.Run("unknown owner lists empty", func(t *testing.T) {
		ids, err := store.ListIDs(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("only metadata files count", func(t *testing.T) {
		require.NoError(t, store.WriteMetadata(ctx, testFragment("owner-a", "frag-1")))
		require.NoError(t, store.WriteMetadata(ctx, testFragment("owner-a", "frag-2")))
		require.NoError(t, store.WriteData(ctx, "owner-a", "frag-1", []byte("x")))
		// a data file with no metadata sibling must not be listed
		require.NoError(t, store.WriteData(ctx, "owner-a", "orphan", []byte("y")))

		ids, err := store.ListIDs(ctx, "owner-a")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"frag-1", "frag-2"}, ids)
	})

	t.Run("owners are isolated", func(t *testing.T) {
		require.NoError(t, store.WriteMetadata(ctx, testFragment("owner-b", "frag-b")))

		ids, err := store.ListIDs(ctx, "owner-a")
		require.NoError(t, err)
		assert.NotContains(t, ids, "frag-b")
	})
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteMetadata(ctx, testFragment("owner-a", "frag-1")))
	require.NoError(t, store.WriteData(ctx, "owner-a", "frag-1", []byte("hello")))

	require.NoError(t, store.Delete(ctx, "owner-a", "frag-1"))

	_, err := store.ReadMetadata(ctx, "owner-a", "frag-1")
	assert.ErrorIs(t, err, fragments.ErrFragmentNotFound)
	_, err = store.ReadData(ctx, "owner-a", "frag-1")
	assert.ErrorIs(t, err, fragments.ErrFragmentNotFound)

	t.Run("absent records delete cleanly", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "owner-a", "frag-1"))
		assert.NoError(t, store.Delete(ctx, "owner-a", "never-existed"))
	})
}

func TestRejectsPathTraversalKeys(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.ReadMetadata(ctx, "../outside", "frag-1")
	var storageErr *fragments.StorageError
	assert.ErrorAs(t, err, &storageErr)

	_, err = store.ReadData(ctx, "owner-a", "../../etc/passwd")
	assert.ErrorAs(t, err, &storageErr)
}
