package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Score is a full-time score guess.
type Score struct {
	Home int
	Away int
}

// String renders the score in the colon notation the oracle produces.
func (s Score) String() string {
	return fmt.Sprintf("%d:%d", s.Home, s.Away)
}

// ParseScore parses "H:A" notation into a Score.
func ParseScore(value string) (Score, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return Score{}, fmt.Errorf("score %q is not in H:A notation", value)
	}

	home, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Score{}, fmt.Errorf("home goals in %q: %w", value, err)
	}
	away, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Score{}, fmt.Errorf("away goals in %q: %w", value, err)
	}
	if home < 0 || away < 0 {
		return Score{}, fmt.Errorf("score %q has negative goals", value)
	}

	return Score{Home: home, Away: away}, nil
}

// TokenUsage is the oracle's token accounting for one prediction call.
type TokenUsage struct {
	Prompt     int
	Completion int
	Total      int
}

// Prediction is the oracle's answer for one entity: a score in colon notation
// for matches, free text for bonus questions.
type Prediction struct {
	Value      string
	TokenUsage TokenUsage
	Cost       float64
}

// PredictionRecord is one stored prediction snapshot. For a fixed
// (Entity, Model, CommunityContext) the RepredictionIndex values form a dense
// sequence starting at 0; the latest record is the one with the highest index.
// HomeTeam/AwayTeam are set only for match entities and back the team-pair
// fallback lookup for cancelled matches.
type PredictionRecord struct {
	Entity               string
	HomeTeam             string
	AwayTeam             string
	Model                string
	CommunityContext     string
	RepredictionIndex    int
	Value                string
	CreatedAt            time.Time
	ContextDocumentNames []string
	TokenUsage           TokenUsage
	Cost                 float64
}

// PredictionMetadata is the slice of a record the staleness check consumes.
type PredictionMetadata struct {
	CreatedAt            time.Time
	ContextDocumentNames []string
}

// RunSettings is the explicit per-run configuration handed into every ledger
// and detector call. There is no ambient equivalent.
type RunSettings struct {
	Model            string
	CommunityContext string
	MaxRepredictions int
}
