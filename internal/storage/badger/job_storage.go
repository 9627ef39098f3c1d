package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
)

// JobStorage implements the job status store on badgerhold.
// Put is whole-record last-writer-wins; ownership of a job id is by
// convention (the worker that dequeued the message), not by lock.
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{
		db:     db,
		logger: logger,
	}
}

// SaveJob overwrites the status record for job.ID. The record is visible
// to pollers as soon as this returns.
func (s *JobStorage) SaveJob(ctx context.Context, job *models.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}

	if err := s.db.Store().Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}

	s.logger.Debug().
		Str("job_id", job.ID).
		Str("status", string(job.Status)).
		Int("processed", job.Processed).
		Int("total", job.Total).
		Msg("Job status saved")

	return nil
}

// GetJob returns the latest status record for the job id.
func (s *JobStorage) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	err := s.db.Store().Get(jobID, &job)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	return &job, nil
}

// ListJobsByStatus returns all jobs in the given status.
func (s *JobStorage) ListJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	var jobs []*models.Job
	err := s.db.Store().Find(&jobs, badgerhold.Where("Status").Eq(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs by status %s: %w", status, err)
	}
	return jobs, nil
}
