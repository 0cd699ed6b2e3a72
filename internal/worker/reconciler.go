package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vidforge/internal/domain"
	"vidforge/internal/generation"
)

// Reconciler bounds how stale a processing job can get when no client
// is polling: it periodically sweeps processing rows that have not
// been touched recently and reconciles them against the provider.
// It shares the conditional-update path with the status endpoint, so
// running both concurrently is safe.
type Reconciler struct {
	jobs       domain.JobRepository
	generation *generation.Service
	logger     zerolog.Logger
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
}

type ReconcilerOptions struct {
	Jobs       domain.JobRepository
	Generation *generation.Service
	Logger     zerolog.Logger
	Interval   time.Duration
	StaleAfter time.Duration
	BatchSize  int
}

func NewReconciler(opts ReconcilerOptions) *Reconciler {
	interval := opts.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	staleAfter := opts.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 30 * time.Second
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Reconciler{
		jobs:       opts.Jobs,
		generation: opts.Generation,
		logger:     opts.Logger,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
	}
}

// Run sweeps until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Dur("stale_after", r.staleAfter).Msg("reconciler started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reconciler stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep reconciles one batch of stale processing jobs.
func (r *Reconciler) Sweep(ctx context.Context) {
	jobs, err := r.jobs.ListStaleProcessing(ctx, r.staleAfter, r.batchSize)
	if err != nil {
		r.logger.Error().Err(err).Msg("reconciler: list stale jobs")
		return
	}
	for i := range jobs {
		job := jobs[i]
		changed, err := r.generation.ReconcileJob(ctx, &job)
		if err != nil {
			r.logger.Error().Err(err).Str("job_id", job.ID).Msg("reconciler: reconcile job")
			continue
		}
		if changed {
			r.logger.Info().Str("job_id", job.ID).Msg("reconciler: job reached terminal state")
		}
		if ctx.Err() != nil {
			return
		}
	}
}
