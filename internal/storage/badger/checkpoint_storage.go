package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
)

// checkpointRecord is the stored shape of one job's partial results.
type checkpointRecord struct {
	JobID     string                 `json:"job_id"`
	Items     []models.IndexedResult `json:"items"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// CheckpointStorage persists partial classification results per job id.
// Save replaces the stored list wholesale; there is no append path.
type CheckpointStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCheckpointStorage creates a new CheckpointStorage instance
func NewCheckpointStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CheckpointStorage {
	return &CheckpointStorage{
		db:     db,
		logger: logger,
	}
}

// Save replaces the checkpoint for the job with the full result list.
func (s *CheckpointStorage) Save(ctx context.Context, jobID string, items []models.IndexedResult) error {
	record := checkpointRecord{
		JobID:     jobID,
		Items:     items,
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.db.Store().Upsert(jobID, &record); err != nil {
		return fmt.Errorf("failed to save checkpoint for job %s: %w", jobID, err)
	}

	s.logger.Debug().
		Str("job_id", jobID).
		Int("items", len(items)).
		Msg("Checkpoint saved")

	return nil
}

// Load returns the stored list, or an empty list when no checkpoint exists.
func (s *CheckpointStorage) Load(ctx context.Context, jobID string) ([]models.IndexedResult, error) {
	var record checkpointRecord
	err := s.db.Store().Get(jobID, &record)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint for job %s: %w", jobID, err)
	}
	return record.Items, nil
}

// Clear removes the checkpoint once the job has completed.
func (s *CheckpointStorage) Clear(ctx context.Context, jobID string) error {
	err := s.db.Store().Delete(jobID, &checkpointRecord{})
	if err == badgerhold.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to clear checkpoint for job %s: %w", jobID, err)
	}

	s.logger.Debug().Str("job_id", jobID).Msg("Checkpoint cleared")
	return nil
}
