package interfaces

import (
	"context"
	"errors"

	"github.com/voclabs/vocero/internal/models"
)

// ErrJobNotFound is returned when a job ID has no status record
var ErrJobNotFound = errors.New("job not found")

// ErrArtifactNotFound is returned when an artifact key does not exist
var ErrArtifactNotFound = errors.New("artifact not found")

// JobStorage is the durable job status store. Writes are whole-record
// last-writer-wins; each job is owned by the single worker executing it,
// so no cross-writer coordination is provided.
type JobStorage interface {
	// SaveJob overwrites the full status record for the job's ID.
	// The record is visible to pollers as soon as SaveJob returns.
	SaveJob(ctx context.Context, job *models.Job) error

	// GetJob returns the latest record, or ErrJobNotFound.
	GetJob(ctx context.Context, jobID string) (*models.Job, error)

	// ListJobsByStatus returns all jobs currently in the given status.
	// Used by the stale-job reaper.
	ListJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error)
}

// CheckpointStorage persists partial classification results so a
// redelivered job resumes instead of restarting. Save replaces the stored
// list wholesale; checkpointing is best-effort, so callers log save
// failures and continue.
type CheckpointStorage interface {
	Save(ctx context.Context, jobID string, items []models.IndexedResult) error

	// Load returns the stored list, or an empty list if none exists.
	Load(ctx context.Context, jobID string) ([]models.IndexedResult, error)

	Clear(ctx context.Context, jobID string) error
}

// ArtifactStorage is a durable keyed blob store for final job outputs
// (review sets, analyzed sets, brand profiles).
type ArtifactStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the stored blob, or ErrArtifactNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	Delete(ctx context.Context, key string) error
}

// StorageManager provides access to all storage implementations
type StorageManager interface {
	JobStorage() JobStorage
	CheckpointStorage() CheckpointStorage
	ArtifactStorage() ArtifactStorage
	Close() error
}
