// -----------------------------------------------------------------------
// Analysis Service - checkpointed batch classification of review sets
// -----------------------------------------------------------------------

package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
)

// Service classifies a stored review set item by item, checkpointing
// partial results so a redelivered job resumes where the last run stopped
// instead of repeating paid classification calls.
//
// Failure handling is deliberately asymmetric: a classification failure
// degrades that one item to the neutral default and the batch continues,
// while a job status write failure aborts the run. Status writes are the
// engine's liveness signal; if they fail the job looks dead to pollers and
// the reaper, so continuing would burn classification spend invisibly.
type Service struct {
	classifier      interfaces.Classifier
	jobs            interfaces.JobStorage
	checkpoints     interfaces.CheckpointStorage
	artifacts       interfaces.ArtifactStorage
	progressEvery   int
	checkpointEvery int
	sampleSize      int
	logger          arbor.ILogger
}

// NewService creates the analysis service.
func NewService(
	classifier interfaces.Classifier,
	jobs interfaces.JobStorage,
	checkpoints interfaces.CheckpointStorage,
	artifacts interfaces.ArtifactStorage,
	progressEvery, checkpointEvery, sampleSize int,
	logger arbor.ILogger,
) *Service {
	if progressEvery <= 0 {
		progressEvery = 10
	}
	if checkpointEvery <= 0 {
		checkpointEvery = 50
	}
	if sampleSize <= 0 {
		sampleSize = 10
	}
	return &Service{
		classifier:      classifier,
		jobs:            jobs,
		checkpoints:     checkpoints,
		artifacts:       artifacts,
		progressEvery:   progressEvery,
		checkpointEvery: checkpointEvery,
		sampleSize:      sampleSize,
		logger:          logger,
	}
}

// Analyze loads the review set named by the payload, classifies every
// review, and stores the merged rows as a new artifact. Dimensions come
// from the payload; if none are given they are suggested from a sample of
// the reviews first.
func (s *Service) Analyze(ctx context.Context, job *models.Job, payload *models.AnalyzePayload) (*models.AnalyzeResult, error) {
	reviews, err := s.loadReviews(ctx, payload.ArtifactKey)
	if err != nil {
		return nil, err
	}

	if len(reviews) == 0 {
		s.logger.Info().Str("job_id", job.ID).Msg("No reviews to analyze")
		return &models.AnalyzeResult{TotalReviews: 0, AnalyzedCount: 0}, nil
	}

	dimensions := payload.Dimensions
	if len(dimensions) == 0 {
		dimensions, err = s.suggestDimensions(ctx, reviews)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest dimensions: %w", err)
		}
	}

	results, err := s.classifyAll(ctx, job, reviews, dimensions)
	if err != nil {
		return nil, err
	}

	rows := mergeResults(reviews, results)

	artifactKey := fmt.Sprintf("analyzed/%s.json", job.ID)
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyzed reviews: %w", err)
	}
	if err := s.artifacts.Put(ctx, artifactKey, data, "application/json"); err != nil {
		return nil, fmt.Errorf("failed to store analyzed reviews: %w", err)
	}

	// The merged set is durable; the checkpoint has served its purpose.
	// Clearing is best-effort: a leftover checkpoint for a completed job
	// is dead weight, not a correctness problem.
	if err := s.checkpoints.Clear(ctx, job.ID); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to clear checkpoint")
	}

	return &models.AnalyzeResult{
		ArtifactKey:   artifactKey,
		TotalReviews:  len(reviews),
		AnalyzedCount: len(results),
	}, nil
}

// classifyAll runs the resumable classification loop. Returned results
// cover every review index exactly once.
func (s *Service) classifyAll(ctx context.Context, job *models.Job, reviews []models.Review, dimensions []models.Dimension) ([]models.IndexedResult, error) {
	results, err := s.checkpoints.Load(ctx, job.ID)
	if err != nil {
		// Treat an unreadable checkpoint as absent. Restarting from zero
		// costs repeated calls but stays correct.
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to load checkpoint, starting fresh")
		results = nil
	}

	done := make(map[int]struct{}, len(results))
	for _, r := range results {
		done[r.Index] = struct{}{}
	}

	if len(done) > 0 {
		s.logger.Info().
			Str("job_id", job.ID).
			Int("resumed", len(done)).
			Int("total", len(reviews)).
			Msg("Resuming classification from checkpoint")
	}

	total := len(reviews)
	for i, review := range reviews {
		if _, skip := done[i]; skip {
			continue
		}

		classification, err := s.classifier.ClassifyReview(ctx, review.Text, dimensions)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn().
				Err(err).
				Str("job_id", job.ID).
				Int("index", i).
				Msg("Classification failed, using neutral default")
			neutral := models.NeutralClassification()
			classification = &neutral
		}

		results = append(results, models.IndexedResult{Index: i, Result: *classification})
		processed := len(results)

		if processed%s.progressEvery == 0 || processed == total {
			job.SetProgress(processed, total, fmt.Sprintf("analyzed %d/%d reviews", processed, total))
			if err := s.jobs.SaveJob(ctx, job); err != nil {
				return nil, fmt.Errorf("failed to write progress: %w", err)
			}
		}

		if processed%s.checkpointEvery == 0 && processed < total {
			if err := s.checkpoints.Save(ctx, job.ID, results); err != nil {
				s.logger.Warn().
					Err(err).
					Str("job_id", job.ID).
					Int("results", processed).
					Msg("Checkpoint save failed, continuing")
			} else {
				s.logger.Debug().
					Str("job_id", job.ID).
					Int("results", processed).
					Msg("Checkpoint saved")
			}
		}
	}

	return results, nil
}

// mergeResults joins classifications back onto their reviews by index and
// returns rows in source order.
func mergeResults(reviews []models.Review, results []models.IndexedResult) []models.ClassifiedReview {
	rows := make([]models.ClassifiedReview, 0, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(reviews) {
			continue
		}
		rows = append(rows, models.ClassifiedReview{
			Index:          r.Index,
			Review:         reviews[r.Index],
			Classification: r.Result,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })
	return rows
}

func (s *Service) loadReviews(ctx context.Context, artifactKey string) ([]models.Review, error) {
	data, err := s.artifacts.Get(ctx, artifactKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load review set %s: %w", artifactKey, err)
	}

	var reviews []models.Review
	if err := json.Unmarshal(data, &reviews); err != nil {
		return nil, fmt.Errorf("failed to parse review set %s: %w", artifactKey, err)
	}
	return reviews, nil
}
