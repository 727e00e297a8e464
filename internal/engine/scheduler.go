package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/waterprint/waterprint/internal/scheduler"
)

// RecomputeJobID identifies the periodic footprint recompute.
const RecomputeJobID = "recompute_footprints"

// GetScheduler returns the scheduler instance for API access.
func (e *Engine) GetScheduler() *scheduler.Scheduler {
	return e.scheduler
}

// Run starts the engine and all its background jobs.
func (e *Engine) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Start the scheduler
	e.scheduler.Start()

	// Wait for context cancellation
	<-ctx.Done()
	return nil
}

// Close stops the engine and cleans up resources.
func (e *Engine) Close() error {
	return e.scheduler.Stop()
}

// setupJobs configures all scheduled jobs.
func (e *Engine) setupJobs() error {
	if e.cfg.RecomputeSchedule == "" {
		log.Info("Footprint recompute schedule is empty, job disabled")
		return nil
	}

	if err := e.scheduler.AddSingletonJob(
		RecomputeJobID,
		"Recompute Footprints",
		"Refreshes the cached footprint of every user",
		e.cfg.RecomputeSchedule,
		gocron.CronJob(e.cfg.RecomputeSchedule, false),
		e.runRecomputeJob,
	); err != nil {
		return fmt.Errorf("failed to add recompute job: %w", err)
	}

	log.Info("Scheduled jobs configured successfully")
	return nil
}

func (e *Engine) runRecomputeJob(ctx context.Context) (string, error) {
	n, err := e.aggregator.RecomputeAll(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("recomputed %d users", n), nil
}
