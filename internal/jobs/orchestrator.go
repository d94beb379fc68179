package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kovalenq/pressroom/internal/cache"
	"github.com/kovalenq/pressroom/internal/report"
	"github.com/kovalenq/pressroom/internal/store"
	"github.com/kovalenq/pressroom/pkg/models"
)

// DefaultJobTTL is how long a finished or abandoned job stays pollable.
const DefaultJobTTL = 24 * time.Hour

// Orchestrator runs report generation jobs: it creates a pending job,
// dispatches the external generator in a background goroutine, and serves
// poll requests until the job's TTL elapses.
type Orchestrator struct {
	store  store.Store
	cache  cache.Cache
	runner report.Runner
	ttl    time.Duration
}

// NewOrchestrator creates a new Orchestrator. A non-positive ttl falls back
// to DefaultJobTTL.
func NewOrchestrator(st store.Store, ca cache.Cache, runner report.Runner, ttl time.Duration) *Orchestrator {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &Orchestrator{
		store:  st,
		cache:  ca,
		runner: runner,
		ttl:    ttl,
	}
}

// Submit creates a pending job for the given ticker and dispatches report
// generation in a background goroutine. Returns the job immediately without
// waiting for the generator to finish.
func (o *Orchestrator) Submit(ctx context.Context, tickerID int64, exchange string) (*models.Job, error) {
	if tickerID <= 0 {
		return nil, fmt.Errorf("invalid ticker id: must be positive, got %d", tickerID)
	}
	if exchange == "" {
		return nil, fmt.Errorf("invalid exchange: must not be empty")
	}

	now := time.Now().UTC()
	job := &models.Job{
		ID:        uuid.New(),
		TickerID:  tickerID,
		Exchange:  exchange,
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(o.ttl),
	}

	if err := o.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	_ = o.cache.SetJobStatus(ctx, job.ID, models.JobStatusPending, o.ttl)

	go o.execute(job.ID, tickerID, exchange)

	return job, nil
}

// execute runs the report generator in a goroutine. It recovers from panics
// and always marks the job as completed or failed.
func (o *Orchestrator) execute(jobID uuid.UUID, tickerID int64, exchange string) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in report job", "error", r, "job_id", jobID)
			o.markFailed(ctx, jobID, fmt.Sprintf("panic: %v", r))
		}
	}()

	_ = o.store.UpdateJobStatus(ctx, jobID, models.JobStatusRunning)
	_ = o.cache.SetJobStatus(ctx, jobID, models.JobStatusRunning, o.ttl)

	sections, err := o.runner.Generate(ctx, tickerID, exchange)
	if err != nil {
		slog.Error("report generation failed",
			"job_id", jobID, "ticker_id", tickerID, "exchange", exchange, "error", err)
		o.markFailed(ctx, jobID, err.Error())
		return
	}

	if err := o.store.UpdateJobStatus(ctx, jobID, models.JobStatusCompleted,
		store.WithSections(sections)); err != nil {
		slog.Error("failed to mark job completed", "job_id", jobID, "error", err)
		return
	}
	_ = o.cache.SetJobStatus(ctx, jobID, models.JobStatusCompleted, o.ttl)

	slog.Info("report job completed",
		"job_id", jobID, "ticker_id", tickerID, "exchange", exchange, "sections", len(sections))
}

func (o *Orchestrator) markFailed(ctx context.Context, jobID uuid.UUID, msg string) {
	_ = o.store.UpdateJobStatus(ctx, jobID, models.JobStatusFailed,
		store.WithErrorMessage(msg))
	_ = o.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, o.ttl)
}

// GetStatus returns the job for polling. A job past its TTL is deleted on
// read and reported as store.ErrNotFound, indistinguishable from a job that
// never existed.
func (o *Orchestrator) GetStatus(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Expired(time.Now().UTC()) {
		_ = o.store.DeleteJob(ctx, jobID)
		_ = o.cache.Delete(ctx, cache.JobStatusKey(jobID))
		return nil, store.ErrNotFound
	}
	return job, nil
}

// RunSweeper periodically deletes expired jobs until ctx is cancelled.
// Intended to run in its own goroutine from server startup.
func (o *Orchestrator) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := o.store.DeleteExpiredJobs(ctx, time.Now().UTC())
			if err != nil {
				slog.Error("expired job sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("swept expired jobs", "deleted", deleted)
			}
		}
	}
}
