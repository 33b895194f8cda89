package identity

import (
	"strings"
	"time"

	"MatchPredictor/internal/domain"
)

// SentinelTime is the fixed fallback kickoff for a cancelled match with no
// earlier row to inherit from. Fixed rather than "now" so repeated runs
// resolve the same key instead of drifting with the wall clock.
var SentinelTime = time.Unix(0, 0).UTC()

const defaultCancellationMarker = "Abgesagt"

// ResolvedMatch is a stable match key plus the cancellation flag. The flag is
// carried alongside the key and is not part of key equality.
type ResolvedMatch struct {
	Key         domain.MatchKey
	IsCancelled bool
}

// Resolver turns raw schedule rows into stable match keys. Schedule tables
// leave the time cell blank when a match starts at the same time as the
// previous row, and replace it with a cancellation marker when a match is
// called off; both cases inherit the last known kickoff so the key stays
// stable across runs.
type Resolver struct {
	marker   string
	location *time.Location
}

// NewResolver configures the cancellation marker (case-insensitive; defaults
// to the Kicktipp placeholder) and the timezone bare clock times belong to.
func NewResolver(marker string, location *time.Location) *Resolver {
	if marker == "" {
		marker = defaultCancellationMarker
	}
	if location == nil {
		location = time.UTC
	}
	return &Resolver{marker: strings.ToLower(marker), location: location}
}

// Resolve processes rows in table order. day anchors bare clock times like
// "15:30" to a calendar date.
//
// Inheritance does not track day boundaries: a cancelled match that is the
// first on a new day inherits the previous day's last kickoff, yielding a key
// with no real schedule slot. Accepted: once the match is rescheduled, its
// real time produces a fresh, correctly keyed prediction, and the old record
// is merely orphaned.
func (r *Resolver) Resolve(day time.Time, rows []domain.ScheduleRow) []ResolvedMatch {
	lastKnownTime := SentinelTime

	resolved := make([]ResolvedMatch, 0, len(rows))
	for _, row := range rows {
		cancelled := false

		text := strings.TrimSpace(row.TimeText)
		switch {
		case text == "":
			// same kickoff as the previous row
		case strings.EqualFold(text, r.marker):
			cancelled = true
		default:
			if parsed, ok := r.parseTime(day, text); ok {
				lastKnownTime = parsed
			}
		}

		resolved = append(resolved, ResolvedMatch{
			Key: domain.MatchKey{
				HomeTeam: row.HomeTeam,
				AwayTeam: row.AwayTeam,
				StartsAt: lastKnownTime,
			},
			IsCancelled: cancelled,
		})
	}

	return resolved
}

func (r *Resolver) parseTime(day time.Time, text string) (time.Time, bool) {
	if parsed, err := time.ParseInLocation("02.01.2006 15:04", text, r.location); err == nil {
		return parsed, true
	}

	if parsed, err := time.ParseInLocation("15:04", text, r.location); err == nil {
		anchored := day.In(r.location)
		return time.Date(anchored.Year(), anchored.Month(), anchored.Day(),
			parsed.Hour(), parsed.Minute(), 0, 0, r.location), true
	}

	// unreadable cell, treated like a blank one
	return time.Time{}, false
}
