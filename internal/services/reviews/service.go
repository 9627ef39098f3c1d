// -----------------------------------------------------------------------
// Reviews Service - collects customer reviews for a set of brand locations
// -----------------------------------------------------------------------

package reviews

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
	"github.com/voclabs/vocero/internal/services/serp"
)

// taskRunner is the create+poll session surface the service needs.
type taskRunner interface {
	Run(ctx context.Context, endpoint serp.Endpoint, payload interface{}) ([]serp.Item, error)
}

// Service collects reviews for every location of every brand in a scrape
// request. Each location is one provider session; a session that yields
// nothing (no reviews, or timed out) contributes zero rows and the
// collection continues.
type Service struct {
	runner    taskRunner
	jobs      interfaces.JobStorage
	artifacts interfaces.ArtifactStorage
	depth     int
	logger    arbor.ILogger
}

// NewService creates the review collection service.
func NewService(runner taskRunner, jobs interfaces.JobStorage, artifacts interfaces.ArtifactStorage, depth int, logger arbor.ILogger) *Service {
	if depth <= 0 {
		depth = 100
	}
	return &Service{
		runner:    runner,
		jobs:      jobs,
		artifacts: artifacts,
		depth:     depth,
		logger:    logger,
	}
}

// Collect fetches reviews for all locations in the payload, stores the
// merged set as an artifact, and reports progress per location.
func (s *Service) Collect(ctx context.Context, job *models.Job, payload *models.ScrapePayload) (*models.ScrapeResult, error) {
	total := 0
	for _, brand := range payload.Brands {
		total += len(brand.Locations)
	}

	var reviews []models.Review
	processed := 0

	for _, brand := range payload.Brands {
		for _, loc := range brand.Locations {
			items, err := s.runner.Run(ctx, serp.EndpointBusinessReviews, serp.ReviewsTask{
				PlaceID:      loc.PlaceID,
				LocationName: loc.Country,
				LanguageName: "English",
				Depth:        s.depth,
				SortBy:       "newest",
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.logger.Warn().
					Err(err).
					Str("brand", brand.Name).
					Str("place_id", loc.PlaceID).
					Msg("Review collection failed for location")
			}

			for _, item := range items {
				if item.ReviewText == "" {
					continue
				}
				review := models.Review{
					Source:   "google_maps",
					Brand:    brand.Name,
					Location: loc.Name,
					PlaceID:  loc.PlaceID,
					Author:   item.ProfileName,
					Date:     item.Timestamp,
					Text:     item.ReviewText,
				}
				if item.Rating != nil {
					review.Rating = item.Rating.Value
				}
				reviews = append(reviews, review)
			}

			processed++
			job.SetProgress(processed, total, fmt.Sprintf("collected %d reviews from %d/%d locations", len(reviews), processed, total))
			if err := s.jobs.SaveJob(ctx, job); err != nil {
				return nil, fmt.Errorf("failed to write progress: %w", err)
			}

			s.logger.Info().
				Str("brand", brand.Name).
				Str("place_id", loc.PlaceID).
				Int("items", len(items)).
				Int("total_reviews", len(reviews)).
				Msg("Location reviews collected")
		}
	}

	artifactKey := fmt.Sprintf("reviews/%s.json", job.ID)
	data, err := json.Marshal(reviews)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal review set: %w", err)
	}
	if err := s.artifacts.Put(ctx, artifactKey, data, "application/json"); err != nil {
		return nil, fmt.Errorf("failed to store review set: %w", err)
	}

	return &models.ScrapeResult{
		ArtifactKey: artifactKey,
		ReviewCount: len(reviews),
		BrandCount:  len(payload.Brands),
	}, nil
}
