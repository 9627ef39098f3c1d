package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
	"github.com/voclabs/vocero/internal/services/reviews"
)

// ScrapeWorker handles scrape jobs: collect reviews for a set of brands.
type ScrapeWorker struct {
	base
	service *reviews.Service
}

// NewScrapeWorker creates the scrape handler.
func NewScrapeWorker(service *reviews.Service, jobs interfaces.JobStorage, logger arbor.ILogger) *ScrapeWorker {
	return &ScrapeWorker{
		base:    base{jobs: jobs, logger: logger},
		service: service,
	}
}

// Handle processes one scrape message.
func (w *ScrapeWorker) Handle(ctx context.Context, msg *models.QueueMessage) error {
	var payload models.ScrapePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid scrape payload: %w", err)
	}
	if len(payload.Brands) == 0 {
		return fmt.Errorf("scrape payload has no brands")
	}

	job, proceed, err := w.begin(ctx, msg.JobID, "collecting reviews")
	if err != nil || !proceed {
		return err
	}

	result, err := w.service.Collect(ctx, job, &payload)
	if err != nil {
		return err
	}

	return w.complete(ctx, job, result,
		fmt.Sprintf("collected %d reviews across %d brands", result.ReviewCount, result.BrandCount))
}
