package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
)

// WebsiteWorker handles website-analysis jobs: build a brand profile from
// a company website and store it as an artifact.
type WebsiteWorker struct {
	base
	analyzer  interfaces.WebsiteAnalyzer
	artifacts interfaces.ArtifactStorage
}

// NewWebsiteWorker creates the website-analysis handler.
func NewWebsiteWorker(analyzer interfaces.WebsiteAnalyzer, artifacts interfaces.ArtifactStorage, jobs interfaces.JobStorage, logger arbor.ILogger) *WebsiteWorker {
	return &WebsiteWorker{
		base:      base{jobs: jobs, logger: logger},
		analyzer:  analyzer,
		artifacts: artifacts,
	}
}

// Handle processes one website-analysis message.
func (w *WebsiteWorker) Handle(ctx context.Context, msg *models.QueueMessage) error {
	var payload models.WebsitePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid website payload: %w", err)
	}
	if payload.Website == "" {
		return fmt.Errorf("website payload missing website")
	}

	job, proceed, err := w.begin(ctx, msg.JobID, "analyzing website")
	if err != nil || !proceed {
		return err
	}

	profile, err := w.analyzer.AnalyzeWebsite(ctx, payload.Website)
	if err != nil {
		return err
	}

	artifactKey := fmt.Sprintf("profiles/%s.json", job.ID)
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal brand profile: %w", err)
	}
	if err := w.artifacts.Put(ctx, artifactKey, data, "application/json"); err != nil {
		return fmt.Errorf("failed to store brand profile: %w", err)
	}

	result := &models.WebsiteResult{ArtifactKey: artifactKey}
	return w.complete(ctx, job, result,
		fmt.Sprintf("brand profile built for %s", profile.CompanyName))
}
