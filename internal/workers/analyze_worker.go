package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
	"github.com/voclabs/vocero/internal/services/analysis"
)

// AnalyzeWorker handles analyze jobs: classify a stored review set.
// The analysis service checkpoints as it goes, so a redelivered analyze
// job resumes rather than repeating classification calls.
type AnalyzeWorker struct {
	base
	service *analysis.Service
}

// NewAnalyzeWorker creates the analyze handler.
func NewAnalyzeWorker(service *analysis.Service, jobs interfaces.JobStorage, logger arbor.ILogger) *AnalyzeWorker {
	return &AnalyzeWorker{
		base:    base{jobs: jobs, logger: logger},
		service: service,
	}
}

// Handle processes one analyze message.
func (w *AnalyzeWorker) Handle(ctx context.Context, msg *models.QueueMessage) error {
	var payload models.AnalyzePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid analyze payload: %w", err)
	}
	if payload.ArtifactKey == "" {
		return fmt.Errorf("analyze payload missing artifact key")
	}

	job, proceed, err := w.begin(ctx, msg.JobID, "analyzing reviews")
	if err != nil || !proceed {
		return err
	}

	result, err := w.service.Analyze(ctx, job, &payload)
	if err != nil {
		return err
	}

	return w.complete(ctx, job, result,
		fmt.Sprintf("analyzed %d/%d reviews", result.AnalyzedCount, result.TotalReviews))
}
