package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"MatchPredictor/internal/docstore"
	"MatchPredictor/internal/domain"
	"MatchPredictor/internal/identity"
	"MatchPredictor/internal/ledger"
	"MatchPredictor/internal/ports"
)

// BonusQuestion is one free-text question with the KPI documents its answer
// is built from.
type BonusQuestion struct {
	Question     string
	KpiDocuments []string
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source        ports.MatchSource
	Ledger        ports.PredictionLedger
	Documents     ports.DocumentProvider
	Kpis          ports.DocumentProvider
	Detector      ports.StalenessChecker
	BonusDetector ports.StalenessChecker
	Oracle        ports.PredictionOracle
	Resolver      *identity.Resolver

	Settings         domain.RunSettings
	ContextDocuments []string
	BonusQuestions   []BonusQuestion
	Logger           *slog.Logger
}

// Pipeline implements the prediction workflow: resolve stable match keys,
// look up the reprediction index, consult the staleness detector, and append
// regenerated predictions to the ledger.
type Pipeline struct {
	source        ports.MatchSource
	ledger        ports.PredictionLedger
	documents     ports.DocumentProvider
	kpis          ports.DocumentProvider
	detector      ports.StalenessChecker
	bonusDetector ports.StalenessChecker
	oracle        ports.PredictionOracle
	resolver      *identity.Resolver

	settings         domain.RunSettings
	contextDocuments []string
	bonusQuestions   []BonusQuestion
	logger           *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:           deps.Source,
		ledger:           deps.Ledger,
		documents:        deps.Documents,
		kpis:             deps.Kpis,
		detector:         deps.Detector,
		bonusDetector:    deps.BonusDetector,
		oracle:           deps.Oracle,
		resolver:         deps.Resolver,
		settings:         deps.Settings,
		contextDocuments: deps.ContextDocuments,
		bonusQuestions:   deps.BonusQuestions,
		logger:           deps.Logger,
	}
}

// ProcessMatchday fetches the schedule, resolves stable keys, and runs the
// regeneration policy for every match. A failure on one match never stops
// the others; cancellation is honored between matches, so an interrupted run
// leaves the ledger valid but incomplete.
func (p *Pipeline) ProcessMatchday(ctx context.Context, matchday int, day time.Time) error {
	if p.source == nil {
		return nil
	}

	rows, err := p.source.FetchMatchday(ctx, matchday, day)
	if err != nil {
		return fmt.Errorf("fetch matchday %d: %w", matchday, err)
	}

	matches := p.resolver.Resolve(day, rows)
	p.debug("matchday resolved", "matchday", matchday, "matches", len(matches))

	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}

		if match.IsCancelled {
			p.reportCancelled(ctx, match.Key)
			continue
		}

		task := predictionTask{
			entity:       match.Key,
			subject:      matchSubject(match.Key),
			documents:    p.documents,
			detector:     p.detector,
			contextNames: p.contextDocuments,
			validate:     validateScore,
		}
		if err := p.processEntity(ctx, task); err != nil {
			p.warn("match prediction failed",
				"home", match.Key.HomeTeam, "away", match.Key.AwayTeam, "error", err)
		}
	}

	return nil
}

// ProcessBonusQuestions runs the same regeneration policy for every
// configured bonus question, with context pulled from the KPI family.
func (p *Pipeline) ProcessBonusQuestions(ctx context.Context) error {
	for _, question := range p.bonusQuestions {
		if err := ctx.Err(); err != nil {
			return err
		}

		task := predictionTask{
			entity:       domain.Question(question.Question),
			subject:      question.Question,
			documents:    p.kpis,
			detector:     p.bonusDetector,
			contextNames: question.KpiDocuments,
		}
		if err := p.processEntity(ctx, task); err != nil {
			p.warn("bonus prediction failed", "question", question.Question, "error", err)
		}
	}

	return nil
}

// predictionTask bundles everything the regeneration policy needs for one
// entity; matches and bonus questions differ only in these inputs.
type predictionTask struct {
	entity       domain.Entity
	subject      string
	documents    ports.DocumentProvider
	detector     ports.StalenessChecker
	contextNames []string
	validate     func(string) error
}

func (p *Pipeline) processEntity(ctx context.Context, task predictionTask) error {
	if p.ledger == nil {
		return fmt.Errorf("prediction ledger is not configured")
	}

	index, err := p.ledger.GetRepredictionIndex(ctx, task.entity, p.settings.Model, p.settings.CommunityContext)
	if err != nil {
		return fmt.Errorf("read reprediction index: %w", err)
	}

	switch {
	case index == ledger.NoPrediction:
		prediction, names, err := p.predict(ctx, task)
		if err != nil {
			return err
		}
		if err := p.ledger.SaveInitialPrediction(ctx, task.entity, prediction,
			p.settings.Model, p.settings.CommunityContext, names, false); err != nil {
			return fmt.Errorf("save initial prediction: %w", err)
		}
		p.debug("initial prediction saved", "entity", task.entity.Identity(), "value", prediction.Value)

	case index+1 > p.settings.MaxRepredictions:
		value, err := p.ledger.GetLatestPrediction(ctx, task.entity, p.settings.Model, p.settings.CommunityContext)
		if err != nil {
			return fmt.Errorf("read latest prediction: %w", err)
		}
		p.debug("reprediction budget exhausted, reusing latest",
			"entity", task.entity.Identity(), "index", index, "value", value)

	default:
		meta, err := p.ledger.GetLatestPredictionMetadata(ctx, task.entity, p.settings.Model, p.settings.CommunityContext)
		if err != nil {
			return fmt.Errorf("read prediction metadata: %w", err)
		}

		if !task.detector.IsOutdated(ctx, meta, p.settings.CommunityContext) {
			p.debug("prediction still fresh, reusing", "entity", task.entity.Identity(), "index", index)
			return nil
		}

		prediction, names, err := p.predict(ctx, task)
		if err != nil {
			return err
		}
		if err := p.ledger.SaveReprediction(ctx, task.entity, prediction,
			p.settings.Model, p.settings.CommunityContext, names, index+1); err != nil {
			return fmt.Errorf("save reprediction %d: %w", index+1, err)
		}
		p.debug("reprediction saved", "entity", task.entity.Identity(), "index", index+1, "value", prediction.Value)
	}

	return nil
}

func (p *Pipeline) predict(ctx context.Context, task predictionTask) (domain.Prediction, []string, error) {
	if p.oracle == nil {
		return domain.Prediction{}, nil, fmt.Errorf("prediction oracle is not configured")
	}

	var (
		docs  []domain.VersionedDocument
		names []string
	)
	for _, name := range task.contextNames {
		doc, err := task.documents.GetLatestDocument(ctx, name, p.settings.CommunityContext)
		if errors.Is(err, docstore.ErrNotFound) {
			p.warn("context document missing, predicting without it", "document", name)
			continue
		}
		if err != nil {
			return domain.Prediction{}, nil, fmt.Errorf("fetch context %s: %w", name, err)
		}
		docs = append(docs, doc)
		names = append(names, name)
	}

	prediction, err := p.oracle.Predict(ctx, task.subject, docs)
	if err != nil {
		return domain.Prediction{}, nil, fmt.Errorf("oracle: %w", err)
	}

	if task.validate != nil {
		if err := task.validate(prediction.Value); err != nil {
			return domain.Prediction{}, nil, fmt.Errorf("oracle answer rejected: %w", err)
		}
	}

	return prediction, names, nil
}

// reportCancelled surfaces the most recent prediction for a cancelled match.
// The same cancelled fixture can appear under different inherited kickoff
// times across runs, so the lookup goes by team pair alone.
func (p *Pipeline) reportCancelled(ctx context.Context, key domain.MatchKey) {
	if p.ledger == nil {
		return
	}

	record, err := p.ledger.GetByTeamsOnly(ctx, key.HomeTeam, key.AwayTeam,
		p.settings.Model, p.settings.CommunityContext)
	if errors.Is(err, docstore.ErrNotFound) {
		p.debug("cancelled match has no prior prediction", "home", key.HomeTeam, "away", key.AwayTeam)
		return
	}
	if err != nil {
		p.warn("cancelled match lookup failed", "home", key.HomeTeam, "away", key.AwayTeam, "error", err)
		return
	}

	p.debug("cancelled match, keeping latest prediction",
		"home", key.HomeTeam, "away", key.AwayTeam,
		"value", record.Value, "index", record.RepredictionIndex)
}

func matchSubject(key domain.MatchKey) string {
	return fmt.Sprintf("Predict the final score of %s vs %s, kickoff %s.",
		key.HomeTeam, key.AwayTeam, key.StartsAt.Format("02.01.2006 15:04"))
}

func validateScore(value string) error {
	_, err := domain.ParseScore(value)
	return err
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
