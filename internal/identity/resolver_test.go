package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MatchPredictor/internal/domain"
)

var berlin = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		panic(err)
	}
	return loc
}()

func TestResolveInheritsTimes(t *testing.T) {
	t.Parallel()

	resolver := NewResolver("", berlin)
	day := time.Date(2026, 3, 7, 0, 0, 0, 0, berlin)

	rows := []domain.ScheduleRow{
		{TimeText: "15:30", HomeTeam: "FC A", AwayTeam: "FC B"},
		{TimeText: "", HomeTeam: "FC C", AwayTeam: "FC D"},
		{TimeText: "Abgesagt", HomeTeam: "FC E", AwayTeam: "FC F"},
		{TimeText: "18:30", HomeTeam: "FC G", AwayTeam: "FC H"},
	}

	resolved := resolver.Resolve(day, rows)
	require.Len(t, resolved, 4)

	early := time.Date(2026, 3, 7, 15, 30, 0, 0, berlin)
	late := time.Date(2026, 3, 7, 18, 30, 0, 0, berlin)

	assert.True(t, resolved[0].Key.StartsAt.Equal(early))
	assert.True(t, resolved[1].Key.StartsAt.Equal(early))
	assert.True(t, resolved[2].Key.StartsAt.Equal(early))
	assert.True(t, resolved[3].Key.StartsAt.Equal(late))

	for i, match := range resolved {
		assert.Equal(t, i == 2, match.IsCancelled, "row %d", i)
	}

	assert.Equal(t, "FC E", resolved[2].Key.HomeTeam)
	assert.Equal(t, "FC F", resolved[2].Key.AwayTeam)
}

func TestResolveFirstRowCancellationUsesSentinel(t *testing.T) {
	t.Parallel()

	resolver := NewResolver("", berlin)
	day := time.Date(2026, 3, 7, 0, 0, 0, 0, berlin)

	rows := []domain.ScheduleRow{
		{TimeText: "Abgesagt", HomeTeam: "FC A", AwayTeam: "FC B"},
	}

	first := resolver.Resolve(day, rows)
	second := resolver.Resolve(day, rows)

	require.Len(t, first, 1)
	assert.True(t, first[0].IsCancelled)
	assert.True(t, first[0].Key.StartsAt.Equal(SentinelTime))
	// repeated runs resolve to the identical key, never to "now"
	assert.Equal(t, first[0].Key.Identity(), second[0].Key.Identity())
}

func TestResolveMarkerIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	resolver := NewResolver("", berlin)
	day := time.Date(2026, 3, 7, 0, 0, 0, 0, berlin)

	resolved := resolver.Resolve(day, []domain.ScheduleRow{
		{TimeText: "ABGESAGT", HomeTeam: "FC A", AwayTeam: "FC B"},
		{TimeText: "abgesagt", HomeTeam: "FC C", AwayTeam: "FC D"},
	})

	assert.True(t, resolved[0].IsCancelled)
	assert.True(t, resolved[1].IsCancelled)
}

func TestResolveCustomMarker(t *testing.T) {
	t.Parallel()

	resolver := NewResolver("postponed", berlin)
	day := time.Date(2026, 3, 7, 0, 0, 0, 0, berlin)

	resolved := resolver.Resolve(day, []domain.ScheduleRow{
		{TimeText: "15:30", HomeTeam: "FC A", AwayTeam: "FC B"},
		{TimeText: "Postponed", HomeTeam: "FC C", AwayTeam: "FC D"},
	})

	assert.False(t, resolved[0].IsCancelled)
	assert.True(t, resolved[1].IsCancelled)
	assert.True(t, resolved[1].Key.StartsAt.Equal(resolved[0].Key.StartsAt))
}

func TestResolveFullDateTimeCell(t *testing.T) {
	t.Parallel()

	resolver := NewResolver("", berlin)
	day := time.Date(2026, 3, 7, 0, 0, 0, 0, berlin)

	resolved := resolver.Resolve(day, []domain.ScheduleRow{
		{TimeText: "08.03.2026 17:30", HomeTeam: "FC A", AwayTeam: "FC B"},
	})

	want := time.Date(2026, 3, 8, 17, 30, 0, 0, berlin)
	assert.True(t, resolved[0].Key.StartsAt.Equal(want))
}

func TestResolveUnreadableCellInheritsLikeBlank(t *testing.T) {
	t.Parallel()

	resolver := NewResolver("", berlin)
	day := time.Date(2026, 3, 7, 0, 0, 0, 0, berlin)

	resolved := resolver.Resolve(day, []domain.ScheduleRow{
		{TimeText: "15:30", HomeTeam: "FC A", AwayTeam: "FC B"},
		{TimeText: "n/a", HomeTeam: "FC C", AwayTeam: "FC D"},
	})

	assert.True(t, resolved[1].Key.StartsAt.Equal(resolved[0].Key.StartsAt))
	assert.False(t, resolved[1].IsCancelled)
}

func TestAbbreviation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "BVB", Abbreviation("Borussia Dortmund"))
	assert.Equal(t, "FCB", Abbreviation("FC Bayern München"))
	// fallback: first letters of the first three words
	assert.Equal(t, "HB", Abbreviation("Hertha BSC"))
	assert.Equal(t, "SGF", Abbreviation("SpVgg Greuther Fürth"))
	assert.Equal(t, "RL", Abbreviation("rasenballsport leipzig"))
	assert.Equal(t, "", Abbreviation("  "))
}
