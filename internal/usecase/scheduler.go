package usecase

import (
	"context"
	"log/slog"
	"time"

	"videodigest/internal/ports"
)

// Scheduler wires the interval driver with the pipeline for daemon mode.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	jobs     []ChannelJob
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, jobs []ChannelJob, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, jobs: jobs, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled run triggered", "at", trigger)
		report := s.pipeline.Run(ctx, s.jobs)
		if report.ExitCode() != 0 {
			s.logger.Error("scheduled run has videos beyond retry budget",
				"run_id", report.RunID, "permanent", report.Permanent)
		}
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
