package usecase

import (
	"context"
	"time"

	"MatchPredictor/internal/ports"
)

// Scheduler wires the ticker driver with the prediction pipeline.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	matchday int
}

// NewScheduler returns a helper to start/stop recurring prediction runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, matchday int) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, matchday: matchday}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		_ = s.pipeline.ProcessMatchday(ctx, s.matchday, trigger)
		_ = s.pipeline.ProcessBonusQuestions(ctx)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
