// -----------------------------------------------------------------------
// Job - status record for one unit of asynchronous work
// -----------------------------------------------------------------------

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusError     JobStatus = "error"
)

// JobKind identifies which handler executes a job
type JobKind string

const (
	JobKindScrape          JobKind = "scrape"
	JobKindAnalyze         JobKind = "analyze"
	JobKindDiscover        JobKind = "discover"
	JobKindWebsiteAnalysis JobKind = "website-analysis"
)

// KnownJobKinds lists every kind the worker loop can dispatch.
var KnownJobKinds = []JobKind{
	JobKindScrape,
	JobKindAnalyze,
	JobKindDiscover,
	JobKindWebsiteAnalysis,
}

// Job is the status record stored for polling clients.
//
// Each job is owned by exactly one worker execution at a time (queue
// visibility semantics, not a lock), so writes are whole-record
// last-writer-wins. Records are never deleted by the engine; retention
// is a collaborator concern.
type Job struct {
	ID        string          `json:"id"`
	Kind      JobKind         `json:"kind"`
	Status    JobStatus       `json:"status"`
	Message   string          `json:"message"`
	Processed int             `json:"processed"`
	Total     int             `json:"total"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewJob creates a pending job of the given kind.
func NewJob(kind JobKind) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    JobStatusPending,
		Message:   "queued for processing",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal reports whether the job has finished, successfully or not.
// An errored job can still be retried by a redelivered queue message; the
// error becomes final once the message has no deliveries left.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusError
}

// SetProgress updates counters and message without changing status.
// Counters are monotonically non-decreasing within a run.
func (j *Job) SetProgress(processed, total int, message string) {
	if processed > j.Processed {
		j.Processed = processed
	}
	if total > j.Total {
		j.Total = total
	}
	j.Message = message
	j.UpdatedAt = time.Now().UTC()
}

// SetStatus transitions the job and stamps the update time.
func (j *Job) SetStatus(status JobStatus, message string) {
	j.Status = status
	j.Message = message
	j.UpdatedAt = time.Now().UTC()
}

// SetResult attaches the kind-specific result payload.
func (j *Job) SetResult(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal job result: %w", err)
	}
	j.Result = data
	return nil
}

// Validate checks required fields before persistence.
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if j.Kind == "" {
		return fmt.Errorf("job kind is required")
	}
	if j.Status == "" {
		return fmt.Errorf("job status is required")
	}
	return nil
}
