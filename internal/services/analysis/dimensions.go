package analysis

import (
	"context"
	"fmt"

	"github.com/voclabs/vocero/internal/models"
)

// suggestDimensions samples evenly spaced reviews and asks the classifier
// to propose analysis dimensions from them. Even spacing keeps the sample
// spread across sources instead of front-loading one brand.
func (s *Service) suggestDimensions(ctx context.Context, reviews []models.Review) ([]models.Dimension, error) {
	samples := sampleTexts(reviews, s.sampleSize)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no review text available for dimension suggestion")
	}

	dimensions, err := s.classifier.SuggestDimensions(ctx, samples)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("samples", len(samples)).
		Int("dimensions", len(dimensions)).
		Msg("Dimensions suggested from review sample")

	return dimensions, nil
}

func sampleTexts(reviews []models.Review, size int) []string {
	if size > len(reviews) {
		size = len(reviews)
	}
	if size == 0 {
		return nil
	}

	step := len(reviews) / size
	if step < 1 {
		step = 1
	}

	var samples []string
	for i := 0; i < len(reviews) && len(samples) < size; i += step {
		if reviews[i].Text != "" {
			samples = append(samples, reviews[i].Text)
		}
	}
	return samples
}
