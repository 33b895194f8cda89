package ports

import (
	"context"
	"time"

	"MatchPredictor/internal/domain"
)

// MatchSource pulls raw matchday schedule rows from upstream providers.
type MatchSource interface {
	FetchMatchday(ctx context.Context, matchday int, day time.Time) ([]domain.ScheduleRow, error)
}

// PredictionOracle asks a language model for a score or bonus answer given
// the fetched context documents. Black box: value plus token/cost accounting.
type PredictionOracle interface {
	Predict(ctx context.Context, subject string, contextDocs []domain.VersionedDocument) (domain.Prediction, error)
}

// PredictionLedger is the append-only prediction chain addressed by
// (entity, model, communityContext).
type PredictionLedger interface {
	GetRepredictionIndex(ctx context.Context, entity domain.Entity, model, community string) (int, error)
	SaveInitialPrediction(ctx context.Context, entity domain.Entity, prediction domain.Prediction, model, community string, contextNames []string, overrideCreatedAt bool) error
	SaveReprediction(ctx context.Context, entity domain.Entity, prediction domain.Prediction, model, community string, contextNames []string, index int) error
	GetLatestPrediction(ctx context.Context, entity domain.Entity, model, community string) (string, error)
	GetLatestPredictionMetadata(ctx context.Context, entity domain.Entity, model, community string) (domain.PredictionMetadata, error)
	GetByTeamsOnly(ctx context.Context, home, away, model, community string) (domain.PredictionRecord, error)
}

// DocumentProvider reads the latest version of a named document chain.
type DocumentProvider interface {
	GetLatestDocument(ctx context.Context, name, community string) (domain.VersionedDocument, error)
}

// StalenessChecker decides whether a stored prediction's inputs changed after
// it was made.
type StalenessChecker interface {
	IsOutdated(ctx context.Context, meta domain.PredictionMetadata, community string) bool
}

// Scheduler controls when prediction runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
