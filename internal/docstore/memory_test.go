package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutPreservesTimestampWithoutServerTimestamp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Put(ctx, "c", "k", map[string]any{"v": 1}, true))

	now = now.Add(time.Hour)
	require.NoError(t, store.Put(ctx, "c", "k", map[string]any{"v": 2}, false))

	doc, err := store.Get(ctx, "c", "k")
	require.NoError(t, err)
	assert.Equal(t, 2, Int(doc.Fields, "v"))
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), doc.CreatedAt)

	require.NoError(t, store.Put(ctx, "c", "k", map[string]any{"v": 3}, true))
	doc, err = store.Get(ctx, "c", "k")
	require.NoError(t, err)
	assert.Equal(t, now, doc.CreatedAt)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	t.Parallel()

	_, err := NewMemoryStore().Get(context.Background(), "c", "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreQueryFiltersAndNumericOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < 11; i++ {
		require.NoError(t, store.Put(ctx, "c", string(rune('a'+i)), map[string]any{
			"name":    "chain",
			"version": i,
		}, true))
	}
	require.NoError(t, store.Put(ctx, "c", "other", map[string]any{
		"name":    "other",
		"version": 99,
	}, true))

	docs, err := store.Query(ctx, "c", Query{
		Filters:    []Filter{{Field: "name", Value: "chain"}},
		OrderBy:    "version",
		Descending: true,
		Numeric:    true,
		Limit:      1,
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	// text ordering would put "9" above "10"
	assert.Equal(t, 10, Int(docs[0].Fields, "version"))
}

func TestMemoryStoreQueryOrdersByCreatedAt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Put(ctx, "c", "old", map[string]any{"name": "x"}, true))
	now = now.Add(time.Hour)
	require.NoError(t, store.Put(ctx, "c", "new", map[string]any{"name": "x"}, true))

	docs, err := store.Query(ctx, "c", Query{
		Filters:    []Filter{{Field: "name", Value: "x"}},
		OrderBy:    CreatedAtField,
		Descending: true,
		Limit:      1,
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "new", docs[0].Key)
}
