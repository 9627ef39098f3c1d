// -----------------------------------------------------------------------
// Workers - kind-specific handlers behind the queue worker loop
// -----------------------------------------------------------------------

package workers

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
)

// base carries the pieces every handler needs: job status writes and a
// logger. Handlers run under at-least-once delivery; begin returns the
// current job record so a handler can short-circuit redeliveries of work
// that already finished.
type base struct {
	jobs   interfaces.JobStorage
	logger arbor.ILogger
}

// begin loads the job and marks it running. Only a completed job stops a
// redelivery: that means the ack was lost after the final status write. A
// job in error failed on a previous delivery; redelivery is its retry, so
// it flips back to running and proceeds. The error status becomes
// permanent only once the queue stops redelivering the message.
func (b *base) begin(ctx context.Context, jobID string, message string) (*models.Job, bool, error) {
	job, err := b.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	if job.Status == models.JobStatusCompleted {
		// Redelivery of work that already finished (ack lost, or a crash
		// after the final status write). Acknowledge and move on.
		b.logger.Info().
			Str("job_id", jobID).
			Msg("Job already completed, skipping redelivery")
		return job, false, nil
	}

	if job.Status == models.JobStatusError {
		b.logger.Info().
			Str("job_id", jobID).
			Str("kind", string(job.Kind)).
			Msg("Retrying job that failed on a previous delivery")
	}

	job.SetStatus(models.JobStatusRunning, message)
	if err := b.jobs.SaveJob(ctx, job); err != nil {
		return nil, false, fmt.Errorf("failed to mark job running: %w", err)
	}

	return job, true, nil
}

// complete attaches the result and writes the terminal status.
func (b *base) complete(ctx context.Context, job *models.Job, result interface{}, message string) error {
	if err := job.SetResult(result); err != nil {
		return err
	}
	job.SetStatus(models.JobStatusCompleted, message)
	if err := b.jobs.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return nil
}
