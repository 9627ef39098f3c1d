// -----------------------------------------------------------------------
// Reaper - detects running jobs whose worker died without a status write
// -----------------------------------------------------------------------

package reaper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
)

// Reaper periodically sweeps jobs stuck in the running state. A job whose
// last status write is older than the staleness window has lost its worker
// (crash after the queue message was acknowledged, or a bug that stopped
// progress writes) and is flipped to error so pollers stop waiting.
type Reaper struct {
	jobs       interfaces.JobStorage
	staleAfter time.Duration
	schedule   string
	cron       *cron.Cron
	logger     arbor.ILogger
}

// New creates a reaper over the job store.
func New(jobs interfaces.JobStorage, schedule string, staleAfter time.Duration, logger arbor.ILogger) *Reaper {
	if schedule == "" {
		schedule = "*/5 * * * *"
	}
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	return &Reaper{
		jobs:       jobs,
		staleAfter: staleAfter,
		schedule:   schedule,
		cron:       cron.New(),
		logger:     logger,
	}
}

// Start registers the sweep on the cron schedule and begins running.
func (r *Reaper) Start() error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		if err := r.Sweep(context.Background()); err != nil {
			r.logger.Warn().Err(err).Msg("Stale job sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule stale job sweep: %w", err)
	}

	r.cron.Start()
	r.logger.Info().
		Str("schedule", r.schedule).
		Dur("stale_after", r.staleAfter).
		Msg("Stale job reaper started")

	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (r *Reaper) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info().Msg("Stale job reaper stopped")
}

// Sweep marks every stale running job as errored. Exposed for tests and
// for manual triggering.
func (r *Reaper) Sweep(ctx context.Context) error {
	jobs, err := r.jobs.ListJobsByStatus(ctx, models.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to list running jobs: %w", err)
	}

	cutoff := time.Now().UTC().Add(-r.staleAfter)
	reaped := 0

	for _, job := range jobs {
		if job.UpdatedAt.After(cutoff) {
			continue
		}

		lastUpdate := job.UpdatedAt
		job.SetStatus(models.JobStatusError, fmt.Sprintf("job stalled: no progress since %s", lastUpdate.UTC().Format(time.RFC3339)))
		if err := r.jobs.SaveJob(ctx, job); err != nil {
			r.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to mark stale job")
			continue
		}

		reaped++
		r.logger.Warn().
			Str("job_id", job.ID).
			Str("kind", string(job.Kind)).
			Str("last_update", lastUpdate.UTC().Format(time.RFC3339)).
			Msg("Stale running job marked as error")
	}

	if reaped > 0 {
		r.logger.Info().Int("reaped", reaped).Msg("Stale job sweep complete")
	}

	return nil
}
