// -----------------------------------------------------------------------
// Discovery Service - bounded fan-out location search across partitions
// -----------------------------------------------------------------------

package discovery

import (
	"context"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/common"
	"github.com/voclabs/vocero/internal/models"
	"github.com/voclabs/vocero/internal/services/serp"
	"golang.org/x/sync/errgroup"
)

// taskRunner is the create+poll session surface the service needs from the
// provider client. Tests script it.
type taskRunner interface {
	Run(ctx context.Context, endpoint serp.Endpoint, payload interface{}) ([]serp.Item, error)
}

// Service fans a location search out across country partitions with bounded
// concurrency, merging results as sessions finish. Results are deduplicated
// by place id, first seen wins, and each kept result carries the partition
// it was first seen in. Once the merged set reaches the target size no new
// partition sessions start, but sessions already in flight still contribute
// their results.
type Service struct {
	runner      taskRunner
	concurrency int
	target      int
	depth       int
	partitions  map[string]int
	relevant    RelevancePredicate
	logger      arbor.ILogger
}

// Option configures the Service.
type Option func(*Service)

// WithRelevance replaces the result relevance filter.
func WithRelevance(pred RelevancePredicate) Option {
	return func(s *Service) {
		s.relevant = pred
	}
}

// NewService creates a discovery service over the given session runner.
func NewService(runner taskRunner, cfg *common.DiscoveryConfig, logger arbor.ILogger, opts ...Option) *Service {
	s := &Service{
		runner:      runner,
		concurrency: cfg.Concurrency,
		target:      cfg.TargetResults,
		depth:       cfg.Depth,
		partitions:  cfg.Partitions,
		relevant:    DefaultRelevance,
		logger:      logger,
	}
	if s.concurrency <= 0 {
		s.concurrency = 3
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Discover searches every configured partition for locations matching the
// company name and returns the merged, deduplicated set ordered by review
// volume descending. A partition session that fails or times out simply
// contributes nothing; the search result is whatever the other partitions
// produced.
func (s *Service) Discover(ctx context.Context, companyName string) ([]models.Location, error) {
	var mu sync.Mutex
	seen := make(map[string]struct{})
	var merged []models.Location

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, country := range sortedPartitions(s.partitions) {
		mu.Lock()
		enough := len(merged) >= s.target
		mu.Unlock()
		if enough {
			s.logger.Info().
				Str("company", companyName).
				Int("collected", len(merged)).
				Msg("Target reached, skipping remaining partitions")
			break
		}

		country := country
		code := s.partitions[country]

		g.Go(func() error {
			// Re-check once a concurrency slot frees up: sessions that
			// finished while this one was queued may have hit the target.
			mu.Lock()
			enough := len(merged) >= s.target
			mu.Unlock()
			if enough {
				return nil
			}

			items, err := s.runner.Run(ctx, serp.EndpointMapsSearch, serp.MapsSearchTask{
				Keyword:      companyName,
				LocationCode: code,
				LanguageCode: "en",
				Depth:        s.depth,
				Device:       "desktop",
			})
			if err != nil {
				// One partition failing must not sink the whole search.
				s.logger.Warn().
					Err(err).
					Str("country", country).
					Msg("Partition search failed")
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, item := range items {
				if item.PlaceID == "" {
					continue
				}
				if !s.relevant(companyName, item.Title) {
					continue
				}
				if _, dup := seen[item.PlaceID]; dup {
					continue
				}
				seen[item.PlaceID] = struct{}{}

				loc := models.Location{
					PlaceID: item.PlaceID,
					Name:    item.Title,
					Address: item.Address,
					Country: country,
				}
				if item.Rating != nil {
					loc.Rating = item.Rating.Value
					loc.ReviewsCount = item.Rating.VotesCount
				}
				merged = append(merged, loc)
			}

			s.logger.Info().
				Str("country", country).
				Int("items", len(items)).
				Int("collected", len(merged)).
				Msg("Partition search finished")

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ReviewsCount > merged[j].ReviewsCount
	})

	s.logger.Info().
		Str("company", companyName).
		Int("locations", len(merged)).
		Msg("Discovery complete")

	return merged, nil
}

// sortedPartitions gives a stable submission order so runs are
// reproducible in tests and logs.
func sortedPartitions(partitions map[string]int) []string {
	names := make([]string, 0, len(partitions))
	for name := range partitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
