package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/fragments/pkg/fragments"
	"github.com/tendant/fragments/pkg/fragments/storage/memory"
)

func TestMemoryStore(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	f := &fragments.Fragment{
		ID:      "frag-1",
		OwnerID: "owner-a",
		Type:    "text/plain",
		Size:    5,
		Created: now,
		Updated: now,
	}

	t.Run("metadata round trip", func(t *testing.T) {
		require.NoError(t, store.WriteMetadata(ctx, f))
		got, err := store.ReadMetadata(ctx, "owner-a", "frag-1")
		require.NoError(t, err)
		assert.Equal(t, f, got)
	})

	t.Run("data round trip copies bytes", func(t *testing.T) {
		payload := []byte("hello")
		require.NoError(t, store.WriteData(ctx, "owner-a", "frag-1", payload))

		payload[0] = 'X' // caller's buffer must not alias the stored copy

		data, err := store.ReadData(ctx, "owner-a", "frag-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)
	})

	t.Run("missing records", func(t *testing.T) {
		_, err := store.ReadMetadata(ctx, "owner-a", "missing")
		assert.ErrorIs(t, err, fragments.ErrFragmentNotFound)
		_, err = store.ReadData(ctx, "owner-a", "missing")
		assert.ErrorIs(t, err, fragments.ErrFragmentNotFound)
	})

	t.Run("listing is owner scoped", func(t *testing.T) {
		ids, err := store.ListIDs(ctx, "owner-a")
		require.NoError(t, err)
		assert.Equal(t, []string{"frag-1"}, ids)

		ids, err = store.ListIDs(ctx, "owner-b")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("delete removes the pair and is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "owner-a", "frag-1"))
		_, err := store.ReadMetadata(ctx, "owner-a", "frag-1")
		assert.ErrorIs(t, err, fragments.ErrFragmentNotFound)
		assert.NoError(t, store.Delete(ctx, "owner-a", "frag-1"))
	})
}
