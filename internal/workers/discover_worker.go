package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
	"github.com/voclabs/vocero/internal/services/discovery"
)

// DiscoverWorker handles discover jobs: fan out a location search for a
// company across the configured country partitions.
type DiscoverWorker struct {
	base
	service *discovery.Service
}

// NewDiscoverWorker creates the discover handler.
func NewDiscoverWorker(service *discovery.Service, jobs interfaces.JobStorage, logger arbor.ILogger) *DiscoverWorker {
	return &DiscoverWorker{
		base:    base{jobs: jobs, logger: logger},
		service: service,
	}
}

// Handle processes one discover message.
func (w *DiscoverWorker) Handle(ctx context.Context, msg *models.QueueMessage) error {
	var payload models.DiscoverPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid discover payload: %w", err)
	}
	if payload.CompanyName == "" {
		return fmt.Errorf("discover payload missing company name")
	}

	job, proceed, err := w.begin(ctx, msg.JobID, "searching locations")
	if err != nil || !proceed {
		return err
	}

	locations, err := w.service.Discover(ctx, payload.CompanyName)
	if err != nil {
		return err
	}

	result := &models.DiscoverResult{Locations: locations}
	return w.complete(ctx, job, result,
		fmt.Sprintf("found %d locations", len(locations)))
}
