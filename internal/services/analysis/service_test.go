package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/models"
)

// In-memory fakes. The badger-backed implementations have their own tests;
// these isolate the batch loop's resume and failure semantics.

type memJobs struct {
	jobs map[string]*models.Job
	// failAtProcessed simulates a crashed status write at an exact point
	// in the batch. Zero disables it.
	failAtProcessed int
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[string]*models.Job)}
}

func (m *memJobs) SaveJob(ctx context.Context, job *models.Job) error {
	if m.failAtProcessed > 0 && job.Processed == m.failAtProcessed {
		return errors.New("status store unavailable")
	}
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
	var out []*models.Job
	for _, job := range m.jobs {
		if job.Status == status {
			out = append(out, job)
		}
	}
	return out, nil
}

type memCheckpoints struct {
	data    map[string][]models.IndexedResult
	saveErr error
	saves   int
}

func newMemCheckpoints() *memCheckpoints {
	return &memCheckpoints{data: make(map[string][]models.IndexedResult)}
}

func (m *memCheckpoints) Save(ctx context.Context, jobID string, items []models.IndexedResult) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	copied := make([]models.IndexedResult, len(items))
	copy(copied, items)
	m.data[jobID] = copied
	return nil
}

func (m *memCheckpoints) Load(ctx context.Context, jobID string) ([]models.IndexedResult, error) {
	return m.data[jobID], nil
}

func (m *memCheckpoints) Clear(ctx context.Context, jobID string) error {
	delete(m.data, jobID)
	return nil
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

// countingClassifier labels every review Positive and counts calls.
// failIndices makes specific reviews fail classification.
type countingClassifier struct {
	calls       int
	failIndices map[string]bool // keyed by review text
}

func (c *countingClassifier) ClassifyReview(ctx context.Context, text string, dimensions []models.Dimension) (*models.Classification, error) {
	c.calls++
	if c.failIndices[text] {
		return nil, errors.New("model returned garbage")
	}
	return &models.Classification{Sentiment: "Positive", Emotion: "Happy", Score: 0.9}, nil
}

func (c *countingClassifier) SuggestDimensions(ctx context.Context, samples []string) ([]models.Dimension, error) {
	return []models.Dimension{{Name: "Service", Description: "staff and service quality"}}, nil
}

func storeReviews(t *testing.T, artifacts *memArtifacts, key string, n int) {
	t.Helper()
	reviews := make([]models.Review, n)
	for i := range reviews {
		reviews[i] = models.Review{Source: "google_maps", Text: fmt.Sprintf("review-%d", i)}
	}
	data, err := json.Marshal(reviews)
	require.NoError(t, err)
	artifacts.data[key] = data
}

func testDimensions() []models.Dimension {
	return []models.Dimension{{Name: "Service"}, {Name: "Pricing"}}
}

func newTestService(classifier *countingClassifier, jobs *memJobs, checkpoints *memCheckpoints, artifacts *memArtifacts) *Service {
	return NewService(classifier, jobs, checkpoints, artifacts, 10, 50, 10, arbor.NewLogger())
}

func TestAnalyze_FullBatch(t *testing.T) {
	jobs, checkpoints, artifacts := newMemJobs(), newMemCheckpoints(), newMemArtifacts()
	clf := &countingClassifier{}
	svc := newTestService(clf, jobs, checkpoints, artifacts)

	storeReviews(t, artifacts, "reviews/in.json", 25)
	job := models.NewJob(models.JobKindAnalyze)
	require.NoError(t, jobs.SaveJob(context.Background(), job))

	result, err := svc.Analyze(context.Background(), job, &models.AnalyzePayload{
		ArtifactKey: "reviews/in.json",
		Dimensions:  testDimensions(),
	})
	require.NoError(t, err)
	assert.Equal(t, 25, result.TotalReviews)
	assert.Equal(t, 25, result.AnalyzedCount)
	assert.Equal(t, 25, clf.calls)

	var rows []models.ClassifiedReview
	require.NoError(t, json.Unmarshal(artifacts.data[result.ArtifactKey], &rows))
	require.Len(t, rows, 25)
	for i, row := range rows {
		assert.Equal(t, i, row.Index)
		assert.Equal(t, "Positive", row.Sentiment)
	}
}

func TestAnalyze_CrashAndResume(t *testing.T) {
	jobs, checkpoints, artifacts := newMemJobs(), newMemCheckpoints(), newMemArtifacts()
	clf := &countingClassifier{}
	svc := newTestService(clf, jobs, checkpoints, artifacts)

	storeReviews(t, artifacts, "reviews/in.json", 150)
	job := models.NewJob(models.JobKindAnalyze)
	require.NoError(t, jobs.SaveJob(context.Background(), job))

	// First run dies on the progress write at item 80. The checkpoint
	// taken at item 50 is the latest durable state.
	jobs.failAtProcessed = 80
	_, err := svc.Analyze(context.Background(), job, &models.AnalyzePayload{
		ArtifactKey: "reviews/in.json",
		Dimensions:  testDimensions(),
	})
	require.Error(t, err)
	assert.Equal(t, 80, clf.calls)
	assert.Len(t, checkpoints.data[job.ID], 50)

	// Redelivery: the resumed run classifies only the 100 reviews the
	// checkpoint does not cover.
	jobs.failAtProcessed = 0
	callsBefore := clf.calls

	resumed, err := jobs.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	result, err := svc.Analyze(context.Background(), resumed, &models.AnalyzePayload{
		ArtifactKey: "reviews/in.json",
		Dimensions:  testDimensions(),
	})
	require.NoError(t, err)
	assert.Equal(t, 100, clf.calls-callsBefore)
	assert.Equal(t, 150, result.AnalyzedCount)

	// Every review labeled exactly once, in order, and the checkpoint is gone.
	var rows []models.ClassifiedReview
	require.NoError(t, json.Unmarshal(artifacts.data[result.ArtifactKey], &rows))
	require.Len(t, rows, 150)
	for i, row := range rows {
		assert.Equal(t, i, row.Index)
	}
	assert.Empty(t, checkpoints.data[job.ID])
}

func TestAnalyze_FailedItemGetsNeutralDefault(t *testing.T) {
	jobs, checkpoints, artifacts := newMemJobs(), newMemCheckpoints(), newMemArtifacts()
	clf := &countingClassifier{failIndices: map[string]bool{"review-3": true}}
	svc := newTestService(clf, jobs, checkpoints, artifacts)

	storeReviews(t, artifacts, "reviews/in.json", 5)
	job := models.NewJob(models.JobKindAnalyze)
	require.NoError(t, jobs.SaveJob(context.Background(), job))

	result, err := svc.Analyze(context.Background(), job, &models.AnalyzePayload{
		ArtifactKey: "reviews/in.json",
		Dimensions:  testDimensions(),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.AnalyzedCount)

	var rows []models.ClassifiedReview
	require.NoError(t, json.Unmarshal(artifacts.data[result.ArtifactKey], &rows))
	assert.Equal(t, "Neutral", rows[3].Sentiment)
	assert.Equal(t, "Indifferent", rows[3].Emotion)
	assert.Equal(t, "Positive", rows[2].Sentiment)
}

func TestAnalyze_CheckpointSaveFailureIsNotFatal(t *testing.T) {
	jobs, checkpoints, artifacts := newMemJobs(), newMemCheckpoints(), newMemArtifacts()
	checkpoints.saveErr = errors.New("disk full")
	clf := &countingClassifier{}
	svc := newTestService(clf, jobs, checkpoints, artifacts)

	storeReviews(t, artifacts, "reviews/in.json", 60)
	job := models.NewJob(models.JobKindAnalyze)
	require.NoError(t, jobs.SaveJob(context.Background(), job))

	result, err := svc.Analyze(context.Background(), job, &models.AnalyzePayload{
		ArtifactKey: "reviews/in.json",
		Dimensions:  testDimensions(),
	})
	require.NoError(t, err)
	assert.Equal(t, 60, result.AnalyzedCount)
}

func TestAnalyze_EmptyReviewSet(t *testing.T) {
	jobs, checkpoints, artifacts := newMemJobs(), newMemCheckpoints(), newMemArtifacts()
	clf := &countingClassifier{}
	svc := newTestService(clf, jobs, checkpoints, artifacts)

	storeReviews(t, artifacts, "reviews/in.json", 0)
	job := models.NewJob(models.JobKindAnalyze)

	result, err := svc.Analyze(context.Background(), job, &models.AnalyzePayload{
		ArtifactKey: "reviews/in.json",
		Dimensions:  testDimensions(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.AnalyzedCount)
	assert.Equal(t, 0, clf.calls)
}

func TestAnalyze_SuggestsDimensionsWhenMissing(t *testing.T) {
	jobs, checkpoints, artifacts := newMemJobs(), newMemCheckpoints(), newMemArtifacts()
	clf := &countingClassifier{}
	svc := newTestService(clf, jobs, checkpoints, artifacts)

	storeReviews(t, artifacts, "reviews/in.json", 12)
	job := models.NewJob(models.JobKindAnalyze)
	require.NoError(t, jobs.SaveJob(context.Background(), job))

	result, err := svc.Analyze(context.Background(), job, &models.AnalyzePayload{
		ArtifactKey: "reviews/in.json",
	})
	require.NoError(t, err)
	assert.Equal(t, 12, result.AnalyzedCount)
}

func TestSampleTexts(t *testing.T) {
	reviews := make([]models.Review, 100)
	for i := range reviews {
		reviews[i] = models.Review{Text: fmt.Sprintf("r%d", i)}
	}

	samples := sampleTexts(reviews, 10)
	assert.Len(t, samples, 10)
	assert.Equal(t, "r0", samples[0])
	assert.Equal(t, "r90", samples[9])

	assert.Len(t, sampleTexts(reviews[:3], 10), 3)
	assert.Empty(t, sampleTexts(nil, 10))
}
