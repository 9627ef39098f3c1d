package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/models"
	"github.com/voclabs/vocero/internal/services/serp"
)

type memJobs struct {
	jobs map[string]*models.Job
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[string]*models.Job)}
}

func (m *memJobs) SaveJob(ctx context.Context, job *models.Job) error {
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *memJobs) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *job
	return &copied, nil
}

func (m *memJobs) ListJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	return nil, nil
}

type memArtifacts struct {
	data map[string][]byte
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{data: make(map[string][]byte)}
}

func (m *memArtifacts) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.data[key] = data
	return nil
}

func (m *memArtifacts) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (m *memArtifacts) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// placeRunner serves reviews per place id.
type placeRunner struct {
	byPlace map[string][]serp.Item
	errFor  map[string]error
	calls   int
}

func (r *placeRunner) Run(ctx context.Context, endpoint serp.Endpoint, payload interface{}) ([]serp.Item, error) {
	task := payload.(serp.ReviewsTask)
	r.calls++
	if err := r.errFor[task.PlaceID]; err != nil {
		return nil, err
	}
	return r.byPlace[task.PlaceID], nil
}

func reviewItem(text, author string, rating float64) serp.Item {
	return serp.Item{
		Type:        "google_reviews",
		ReviewText:  text,
		ProfileName: author,
		Rating:      &serp.Rating{Value: rating},
	}
}

func scrapePayload() *models.ScrapePayload {
	return &models.ScrapePayload{Brands: []models.Brand{
		{
			Name: "Acme Motors",
			Locations: []models.Location{
				{PlaceID: "p1", Name: "Downtown", Country: "Qatar"},
				{PlaceID: "p2", Name: "Airport", Country: "Qatar"},
			},
		},
	}}
}

func TestCollect_MergesAllLocations(t *testing.T) {
	runner := &placeRunner{byPlace: map[string][]serp.Item{
		"p1": {reviewItem("great service", "Ana", 5), reviewItem("slow pickup", "Ben", 2)},
		"p2": {reviewItem("clean cars", "Cleo", 4)},
	}}
	jobs, artifacts := newMemJobs(), newMemArtifacts()
	svc := NewService(runner, jobs, artifacts, 100, arbor.NewLogger())

	job := models.NewJob(models.JobKindScrape)
	require.NoError(t, jobs.SaveJob(context.Background(), job))

	result, err := svc.Collect(context.Background(), job, scrapePayload())
	require.NoError(t, err)
	assert.Equal(t, 3, result.ReviewCount)
	assert.Equal(t, 1, result.BrandCount)

	var reviews []models.Review
	require.NoError(t, json.Unmarshal(artifacts.data[result.ArtifactKey], &reviews))
	require.Len(t, reviews, 3)
	assert.Equal(t, "Acme Motors", reviews[0].Brand)
	assert.Equal(t, "Downtown", reviews[0].Location)
	assert.Equal(t, "google_maps", reviews[0].Source)
}

func TestCollect_FailedLocationContributesNothing(t *testing.T) {
	runner := &placeRunner{
		byPlace: map[string][]serp.Item{
			"p2": {reviewItem("clean cars", "Cleo", 4)},
		},
		errFor: map[string]error{"p1": errors.New("session failed")},
	}
	jobs, artifacts := newMemJobs(), newMemArtifacts()
	svc := NewService(runner, jobs, artifacts, 100, arbor.NewLogger())

	job := models.NewJob(models.JobKindScrape)
	require.NoError(t, jobs.SaveJob(context.Background(), job))

	result, err := svc.Collect(context.Background(), job, scrapePayload())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReviewCount)
	assert.Equal(t, 2, runner.calls)
}

func TestCollect_SkipsEmptyReviewText(t *testing.T) {
	runner := &placeRunner{byPlace: map[string][]serp.Item{
		"p1": {reviewItem("", "Ghost", 5), reviewItem("good", "Dee", 4)},
	}}
	jobs, artifacts := newMemJobs(), newMemArtifacts()
	svc := NewService(runner, jobs, artifacts, 100, arbor.NewLogger())

	job := models.NewJob(models.JobKindScrape)
	require.NoError(t, jobs.SaveJob(context.Background(), job))

	payload := &models.ScrapePayload{Brands: []models.Brand{
		{Name: "Acme", Locations: []models.Location{{PlaceID: "p1"}}},
	}}

	result, err := svc.Collect(context.Background(), job, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReviewCount)
}

func TestCollect_ReportsProgressPerLocation(t *testing.T) {
	runner := &placeRunner{byPlace: map[string][]serp.Item{}}
	jobs, artifacts := newMemJobs(), newMemArtifacts()
	svc := NewService(runner, jobs, artifacts, 100, arbor.NewLogger())

	job := models.NewJob(models.JobKindScrape)
	require.NoError(t, jobs.SaveJob(context.Background(), job))

	_, err := svc.Collect(context.Background(), job, scrapePayload())
	require.NoError(t, err)

	loaded, err := jobs.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Processed)
	assert.Equal(t, 2, loaded.Total)
}
