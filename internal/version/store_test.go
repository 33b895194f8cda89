package version

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MatchPredictor/internal/docstore"
)

const community = "bundesliga-2026"

func newTestStore(t *testing.T) (*Store, *docstore.MemoryStore, *time.Time) {
	t.Helper()

	backend := docstore.NewMemoryStore()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	backend.SetClock(func() time.Time { return now })

	return NewStore(backend, FamilyContext), backend, &now
}

func TestSaveDocumentDeduplicatesIdenticalContent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _, _ := newTestStore(t)

	v, created, err := store.SaveDocument(ctx, "history.csv", "round 1", community)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.True(t, created)

	for i := 0; i < 3; i++ {
		v, created, err = store.SaveDocument(ctx, "history.csv", "round 1", community)
		require.NoError(t, err)
		assert.Equal(t, 0, v)
		assert.False(t, created)
	}

	versions, err := store.GetDocumentVersions(ctx, "history.csv", community)
	require.NoError(t, err)
	require.Len(t, versions, 1)
}

func TestSaveDocumentAlternatingContentCreatesThreeVersions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _, _ := newTestStore(t)

	for i, content := range []string{"A", "B", "A"} {
		v, created, err := store.SaveDocument(ctx, "history.csv", content, community)
		require.NoError(t, err)
		assert.Equal(t, i, v)
		assert.True(t, created)
	}

	versions, err := store.GetDocumentVersions(ctx, "history.csv", community)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, content := range []string{"A", "B", "A"} {
		assert.Equal(t, i, versions[i].Version)
		assert.Equal(t, content, versions[i].Content)
	}

	doc, err := store.GetDocument(ctx, "history.csv", 1, community)
	require.NoError(t, err)
	assert.Equal(t, "B", doc.Content)
}

func TestGetLatestDocument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _, _ := newTestStore(t)

	_, err := store.GetLatestDocument(ctx, "history.csv", community)
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	for i := 0; i <= 10; i++ {
		_, _, err := store.SaveDocument(ctx, "history.csv", string(rune('a'+i)), community)
		require.NoError(t, err)
	}

	latest, err := store.GetLatestDocument(ctx, "history.csv", community)
	require.NoError(t, err)
	assert.Equal(t, 10, latest.Version)
	assert.Equal(t, "history.csv", latest.Name)
	assert.Equal(t, community, latest.CommunityContext)
}

func TestGetDocumentMissingVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _, _ := newTestStore(t)

	_, _, err := store.SaveDocument(ctx, "history.csv", "A", community)
	require.NoError(t, err)

	_, err = store.GetDocument(ctx, "history.csv", 5, community)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestRewriteDocumentKeepsVersionAndTimestamp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _, clock := newTestStore(t)
	writtenAt := *clock

	_, _, err := store.SaveDocument(ctx, "history.csv", "broken row", community)
	require.NoError(t, err)

	*clock = clock.Add(2 * time.Hour)
	require.NoError(t, store.RewriteDocument(ctx, "history.csv", 0, "fixed row", community))

	doc, err := store.GetDocument(ctx, "history.csv", 0, community)
	require.NoError(t, err)
	assert.Equal(t, "fixed row", doc.Content)
	assert.Equal(t, 0, doc.Version)
	assert.Equal(t, writtenAt, doc.CreatedAt)

	versions, err := store.GetDocumentVersions(ctx, "history.csv", community)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestRewriteDocumentMissingVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _, _ := newTestStore(t)

	err := store.RewriteDocument(ctx, "history.csv", 0, "content", community)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestListDocumentNames(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _, _ := newTestStore(t)

	_, _, err := store.SaveDocument(ctx, "standings.csv", "table", community)
	require.NoError(t, err)
	_, _, err = store.SaveDocument(ctx, "history.csv", "rounds", community)
	require.NoError(t, err)
	_, _, err = store.SaveDocument(ctx, "history.csv", "more rounds", community)
	require.NoError(t, err)
	_, _, err = store.SaveDocument(ctx, "other.txt", "x", "another-community")
	require.NoError(t, err)

	names, err := store.ListDocumentNames(ctx, community)
	require.NoError(t, err)
	assert.Equal(t, []string{"history.csv", "standings.csv"}, names)
}

func TestCommunitiesAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _, _ := newTestStore(t)

	_, _, err := store.SaveDocument(ctx, "history.csv", "A", community)
	require.NoError(t, err)

	_, err = store.GetLatestDocument(ctx, "history.csv", "another-community")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	v, created, err := store.SaveDocument(ctx, "history.csv", "A", "another-community")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.True(t, created)
}

func TestKpiStoreCarriesDescription(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := docstore.NewMemoryStore()
	kpis := NewKpiStore(backend)

	v, created, err := kpis.SaveKpiDocument(ctx, "team-facts", "15 wins", "season facts per team", community)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.True(t, created)

	_, created, err = kpis.SaveKpiDocument(ctx, "team-facts", "15 wins", "season facts per team", community)
	require.NoError(t, err)
	assert.False(t, created)

	doc, err := kpis.GetLatestKpiDocument(ctx, "team-facts", community)
	require.NoError(t, err)
	assert.Equal(t, "15 wins", doc.Content)
	assert.Equal(t, "season facts per team", doc.Description)
}
