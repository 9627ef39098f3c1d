package reaper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/models"
)

type fakeJobs struct {
	jobs map[string]*models.Job
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[string]*models.Job)}
}

func (f *fakeJobs) SaveJob(ctx context.Context, job *models.Job) error {
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeJobs) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobs) ListJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	var out []*models.Job
	for _, job := range f.jobs {
		if job.Status == status {
			copied := *job
			out = append(out, &copied)
		}
	}
	return out, nil
}

func runningJob(updatedAt time.Time) *models.Job {
	job := models.NewJob(models.JobKindAnalyze)
	job.Status = models.JobStatusRunning
	job.UpdatedAt = updatedAt
	return job
}

func TestSweep_MarksStaleRunningJobs(t *testing.T) {
	jobs := newFakeJobs()
	stale := runningJob(time.Now().UTC().Add(-time.Hour))
	require.NoError(t, jobs.SaveJob(context.Background(), stale))

	r := New(jobs, "*/5 * * * *", 30*time.Minute, arbor.NewLogger())
	require.NoError(t, r.Sweep(context.Background()))

	loaded, err := jobs.GetJob(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, loaded.Status)
	assert.Contains(t, loaded.Message, "stalled")
}

func TestSweep_LeavesFreshRunningJobs(t *testing.T) {
	jobs := newFakeJobs()
	fresh := runningJob(time.Now().UTC().Add(-time.Minute))
	require.NoError(t, jobs.SaveJob(context.Background(), fresh))

	r := New(jobs, "*/5 * * * *", 30*time.Minute, arbor.NewLogger())
	require.NoError(t, r.Sweep(context.Background()))

	loaded, err := jobs.GetJob(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, loaded.Status)
}

func TestSweep_IgnoresTerminalJobs(t *testing.T) {
	jobs := newFakeJobs()
	done := models.NewJob(models.JobKindScrape)
	done.Status = models.JobStatusCompleted
	done.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, jobs.SaveJob(context.Background(), done))

	r := New(jobs, "*/5 * * * *", 30*time.Minute, arbor.NewLogger())
	require.NoError(t, r.Sweep(context.Background()))

	loaded, err := jobs.GetJob(context.Background(), done.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, loaded.Status)
}
