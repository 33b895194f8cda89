package domain

import (
	"fmt"
	"time"
)

// Entity is the addressing key for a stored prediction: either a match key
// or a free-text bonus question.
type Entity interface {
	Identity() string
}

// MatchKey is the natural identity of a scheduled match. StartsAt is part of
// key equality, so the same fixture rescheduled to a new time is a new key.
type MatchKey struct {
	HomeTeam string
	AwayTeam string
	StartsAt time.Time
}

// Identity renders the composite key used to address the match in storage.
func (k MatchKey) Identity() string {
	return fmt.Sprintf("%s|%s|%s", k.HomeTeam, k.AwayTeam, k.StartsAt.UTC().Format(time.RFC3339))
}

// Question is a free-text bonus question used as a prediction entity.
type Question string

// Identity returns the question text itself; the text is the stable key.
func (q Question) Identity() string {
	return string(q)
}

// ScheduleRow is one raw row of a matchday schedule table, cells verbatim.
// TimeText may be a clock time, empty (same time as the previous row), or a
// cancellation marker.
type ScheduleRow struct {
	TimeText string
	HomeTeam string
	AwayTeam string
}
