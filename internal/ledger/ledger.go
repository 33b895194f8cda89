package ledger

import (
	"context"
	"errors"
	"fmt"

	"MatchPredictor/internal/docstore"
	"MatchPredictor/internal/domain"
	"MatchPredictor/internal/ports"
)

const collection = "predictions"

// NoPrediction is the sentinel GetRepredictionIndex returns when no record
// exists yet for the addressing triple. It is not an error condition.
const NoPrediction = -1

// Ledger is the append-only chain of prediction snapshots per
// (entity, model, communityContext). Indices are caller-assigned: the ledger
// never auto-increments, so a caller can decide to skip a regeneration
// entirely instead of being forced to append.
type Ledger struct {
	store docstore.Store
}

var _ ports.PredictionLedger = (*Ledger)(nil)

// New wires the ledger onto the raw document store.
func New(store docstore.Store) *Ledger {
	return &Ledger{store: store}
}

// GetRepredictionIndex returns the highest stored index for the triple, or
// NoPrediction when nothing has ever been saved.
func (l *Ledger) GetRepredictionIndex(ctx context.Context, entity domain.Entity, model, community string) (int, error) {
	latest, err := l.latest(ctx, entity, model, community)
	if errors.Is(err, docstore.ErrNotFound) {
		return NoPrediction, nil
	}
	if err != nil {
		return 0, err
	}
	return latest.RepredictionIndex, nil
}

// SaveInitialPrediction writes index 0 if the triple has no record yet. When
// a record exists the call is a no-op unless overrideCreatedAt forces the
// existing index-0 snapshot to be rewritten with a fresh timestamp — the
// manual re-run escape hatch, distinct from a reprediction.
func (l *Ledger) SaveInitialPrediction(ctx context.Context, entity domain.Entity, prediction domain.Prediction, model, community string, contextNames []string, overrideCreatedAt bool) error {
	key := recordKey(community, model, entity.Identity(), 0)

	_, err := l.store.Get(ctx, collection, key)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		// first prediction for this triple
	case err != nil:
		return fmt.Errorf("read initial prediction %s: %w", entity.Identity(), err)
	case !overrideCreatedAt:
		return nil
	}

	return l.put(ctx, entity, prediction, model, community, contextNames, 0)
}

// SaveReprediction appends a snapshot at the caller-supplied index. The
// caller is responsible for having computed currentLatest+1 beforehand.
func (l *Ledger) SaveReprediction(ctx context.Context, entity domain.Entity, prediction domain.Prediction, model, community string, contextNames []string, index int) error {
	if index < 1 {
		return fmt.Errorf("reprediction index %d must be positive", index)
	}
	return l.put(ctx, entity, prediction, model, community, contextNames, index)
}

// GetLatestPrediction returns the value of the highest-index record, or
// docstore.ErrNotFound when the triple has no record.
func (l *Ledger) GetLatestPrediction(ctx context.Context, entity domain.Entity, model, community string) (string, error) {
	latest, err := l.latest(ctx, entity, model, community)
	if err != nil {
		return "", err
	}
	return latest.Value, nil
}

// GetLatestPredictionMetadata returns the staleness-relevant slice of the
// highest-index record.
func (l *Ledger) GetLatestPredictionMetadata(ctx context.Context, entity domain.Entity, model, community string) (domain.PredictionMetadata, error) {
	latest, err := l.latest(ctx, entity, model, community)
	if err != nil {
		return domain.PredictionMetadata{}, err
	}
	return domain.PredictionMetadata{
		CreatedAt:            latest.CreatedAt,
		ContextDocumentNames: latest.ContextDocumentNames,
	}, nil
}

// GetByTeamsOnly returns the most recently created record for the team pair
// across all startsAt values. A cancelled match can surface with different
// inherited kickoff times on different page loads; until it is rescheduled,
// the team names are its only stable identity. Creation-time ties are left to
// the store's ordering.
func (l *Ledger) GetByTeamsOnly(ctx context.Context, home, away, model, community string) (domain.PredictionRecord, error) {
	docs, err := l.store.Query(ctx, collection, docstore.Query{
		Filters: []docstore.Filter{
			{Field: "homeTeam", Value: home},
			{Field: "awayTeam", Value: away},
			{Field: "model", Value: model},
			{Field: "communityContext", Value: community},
		},
		OrderBy:    docstore.CreatedAtField,
		Descending: true,
		Limit:      1,
	})
	if err != nil {
		return domain.PredictionRecord{}, fmt.Errorf("query by teams %s vs %s: %w", home, away, err)
	}
	if len(docs) == 0 {
		return domain.PredictionRecord{}, docstore.ErrNotFound
	}
	return decode(docs[0]), nil
}

func (l *Ledger) latest(ctx context.Context, entity domain.Entity, model, community string) (domain.PredictionRecord, error) {
	docs, err := l.store.Query(ctx, collection, docstore.Query{
		Filters: []docstore.Filter{
			{Field: "entity", Value: entity.Identity()},
			{Field: "model", Value: model},
			{Field: "communityContext", Value: community},
		},
		OrderBy:    "repredictionIndex",
		Descending: true,
		Numeric:    true,
		Limit:      1,
	})
	if err != nil {
		return domain.PredictionRecord{}, fmt.Errorf("query latest prediction %s: %w", entity.Identity(), err)
	}
	if len(docs) == 0 {
		return domain.PredictionRecord{}, docstore.ErrNotFound
	}
	return decode(docs[0]), nil
}

func (l *Ledger) put(ctx context.Context, entity domain.Entity, prediction domain.Prediction, model, community string, contextNames []string, index int) error {
	fields := map[string]any{
		"entity":               entity.Identity(),
		"model":                model,
		"communityContext":     community,
		"repredictionIndex":    index,
		"value":                prediction.Value,
		"contextDocumentNames": contextNames,
		"promptTokens":         prediction.TokenUsage.Prompt,
		"completionTokens":     prediction.TokenUsage.Completion,
		"totalTokens":          prediction.TokenUsage.Total,
		"cost":                 prediction.Cost,
	}

	if match, ok := entity.(domain.MatchKey); ok {
		fields["homeTeam"] = match.HomeTeam
		fields["awayTeam"] = match.AwayTeam
	}

	key := recordKey(community, model, entity.Identity(), index)
	if err := l.store.Put(ctx, collection, key, fields, true); err != nil {
		return fmt.Errorf("write prediction %s i%d: %w", entity.Identity(), index, err)
	}
	return nil
}

func recordKey(community, model, identity string, index int) string {
	return fmt.Sprintf("%s|%s|%s|%d", community, model, identity, index)
}

func decode(doc docstore.Document) domain.PredictionRecord {
	return domain.PredictionRecord{
		Entity:               docstore.String(doc.Fields, "entity"),
		HomeTeam:             docstore.String(doc.Fields, "homeTeam"),
		AwayTeam:             docstore.String(doc.Fields, "awayTeam"),
		Model:                docstore.String(doc.Fields, "model"),
		CommunityContext:     docstore.String(doc.Fields, "communityContext"),
		RepredictionIndex:    docstore.Int(doc.Fields, "repredictionIndex"),
		Value:                docstore.String(doc.Fields, "value"),
		CreatedAt:            doc.CreatedAt,
		ContextDocumentNames: docstore.Strings(doc.Fields, "contextDocumentNames"),
		TokenUsage: domain.TokenUsage{
			Prompt:     docstore.Int(doc.Fields, "promptTokens"),
			Completion: docstore.Int(doc.Fields, "completionTokens"),
			Total:      docstore.Int(doc.Fields, "totalTokens"),
		},
		Cost: docstore.Float(doc.Fields, "cost"),
	}
}
