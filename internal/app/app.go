package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"MatchPredictor/internal/config"
	"MatchPredictor/internal/docstore"
	"MatchPredictor/internal/identity"
	"MatchPredictor/internal/infrastructure/llm"
	"MatchPredictor/internal/infrastructure/parser"
	"MatchPredictor/internal/infrastructure/scheduler"
	"MatchPredictor/internal/ledger"
	"MatchPredictor/internal/logging"
	"MatchPredictor/internal/ports"
	"MatchPredictor/internal/scanner"
	"MatchPredictor/internal/staleness"
	"MatchPredictor/internal/usecase"
	"MatchPredictor/internal/version"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	store     *docstore.PostgresStore
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := docstore.NewPostgresStore(db)

	documents := version.NewStore(store, version.FamilyContext)
	kpis := version.NewKpiStore(store)
	predictionLedger := ledger.New(store)

	detectorLogger := baseLogger.With("component", "staleness")
	detector := staleness.New(documents, cfg.Staleness.ExcludedDocuments, detectorLogger)
	bonusDetector := staleness.New(kpis, cfg.Staleness.ExcludedDocuments, detectorLogger)

	registry := scanner.NewRegistry()
	registry.Register(parser.NewScheduleScanner(nil))
	source := parser.NewStrategySource(registry, cfg.Sites, baseLogger.With("component", "source"))

	var oracle ports.PredictionOracle
	if cfg.Oracle.APIKey != "" {
		oracle = llm.NewOracleClient(cfg.Oracle)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:           source,
		Ledger:           predictionLedger,
		Documents:        documents,
		Kpis:             kpis,
		Detector:         detector,
		BonusDetector:    bonusDetector,
		Oracle:           oracle,
		Resolver:         identity.NewResolver(cfg.Schedule.CancellationMarker, cfg.Schedule.Location()),
		Settings:         cfg.RunSettings(),
		ContextDocuments: cfg.Prediction.ContextDocuments,
		BonusQuestions:   bonusQuestions(cfg.Prediction.BonusQuestions),
		Logger:           baseLogger.With("component", "pipeline"),
	})

	application := &Application{cfg: cfg, store: store, pipeline: pipeline}
	if interval := cfg.Scheduler.Duration(); interval > 0 {
		driver := scheduler.NewTickerScheduler(interval)
		application.scheduler = usecase.NewScheduler(driver, pipeline, cfg.Prediction.Matchday)
	}

	return application, nil
}

// Run performs a single prediction pass for the configured matchday, or keeps
// running on the configured interval.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	if err := a.store.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return a.scheduler.Stop(context.Background())
	}

	now := time.Now().In(a.cfg.Schedule.Location())
	if err := a.pipeline.ProcessMatchday(ctx, a.cfg.Prediction.Matchday, now); err != nil {
		return err
	}
	return a.pipeline.ProcessBonusQuestions(ctx)
}

func bonusQuestions(cfg []config.BonusQuestionConfig) []usecase.BonusQuestion {
	questions := make([]usecase.BonusQuestion, 0, len(cfg))
	for _, q := range cfg {
		questions = append(questions, usecase.BonusQuestion{
			Question:     q.Question,
			KpiDocuments: q.KpiDocuments,
		})
	}
	return questions
}
