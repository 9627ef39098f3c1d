package interfaces

import (
	"context"

	"github.com/voclabs/vocero/internal/models"
)

// Classifier is the external text-classification service.
// Implementations must tolerate malformed model output: a response that
// cannot be parsed is surfaced as an error, never a panic, and callers
// substitute models.NeutralClassification for that item.
type Classifier interface {
	// ClassifyReview labels one review against the allowed dimensions.
	ClassifyReview(ctx context.Context, text string, dimensions []models.Dimension) (*models.Classification, error)

	// SuggestDimensions proposes analysis axes from a sample of reviews.
	SuggestDimensions(ctx context.Context, samples []string) ([]models.Dimension, error)
}

// WebsiteAnalyzer extracts a brand profile from a company website.
type WebsiteAnalyzer interface {
	AnalyzeWebsite(ctx context.Context, website string) (*models.BrandProfile, error)
}
