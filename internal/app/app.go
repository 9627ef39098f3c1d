// -----------------------------------------------------------------------
// App - dependency wiring for the job engine
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/common"
	"github.com/voclabs/vocero/internal/models"
	"github.com/voclabs/vocero/internal/queue"
	"github.com/voclabs/vocero/internal/services/analysis"
	"github.com/voclabs/vocero/internal/services/classifier"
	"github.com/voclabs/vocero/internal/services/discovery"
	"github.com/voclabs/vocero/internal/services/reaper"
	"github.com/voclabs/vocero/internal/services/reviews"
	"github.com/voclabs/vocero/internal/services/serp"
	"github.com/voclabs/vocero/internal/services/website"
	badgerstore "github.com/voclabs/vocero/internal/storage/badger"
	"github.com/voclabs/vocero/internal/workers"
)

// App holds all application dependencies
type App struct {
	Config  *common.Config
	Logger  arbor.ILogger
	Storage *badgerstore.Manager
	Queue   *queue.Manager
	Worker  *queue.Worker
	Reaper  *reaper.Reaper
}

// New creates the application with all dependencies wired. Handlers for
// job kinds whose external service is not configured are simply not
// registered; their messages dead-letter through the queue's max-receive
// policy rather than crashing startup.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	storage, err := badgerstore.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	queueManager, err := queue.NewManager(
		storage.DB().Badger(),
		cfg.Queue.QueueName,
		cfg.QueueVisibilityTimeout(),
		cfg.Queue.MaxReceive,
		logger,
	)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	worker := queue.NewWorker(queueManager, storage.JobStorage(), cfg.QueuePollInterval(), logger)

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Storage: storage,
		Queue:   queueManager,
		Worker:  worker,
		Reaper:  reaper.New(storage.JobStorage(), cfg.Reaper.Schedule, cfg.ReaperStaleAfter(), logger),
	}

	app.registerHandlers(ctx)

	return app, nil
}

func (a *App) registerHandlers(ctx context.Context) {
	cfg := a.Config
	logger := a.Logger

	// Provider-backed handlers: discovery and review collection.
	if cfg.Provider.Login != "" && cfg.Provider.Password != "" {
		transport := serp.NewTransport(
			cfg.Provider.BaseURL,
			cfg.Provider.Login,
			cfg.Provider.Password,
			logger,
			serp.WithRateLimit(cfg.Provider.RateLimit),
		)
		searchClient := serp.NewClient(transport, &cfg.Provider, logger)

		discoveryService := discovery.NewService(searchClient, &cfg.Discovery, logger)
		a.Worker.RegisterHandler(models.JobKindDiscover,
			workers.NewDiscoverWorker(discoveryService, a.Storage.JobStorage(), logger).Handle)

		// Review tasks take longer to finish than searches; give their
		// sessions a deeper poll budget.
		reviewsClient := serp.NewClient(transport, &cfg.Provider, logger,
			serp.WithPollMaxAttempts(cfg.Provider.PollMaxAttempts+5))

		reviewsService := reviews.NewService(reviewsClient, a.Storage.JobStorage(), a.Storage.ArtifactStorage(), cfg.Discovery.Depth, logger)
		a.Worker.RegisterHandler(models.JobKindScrape,
			workers.NewScrapeWorker(reviewsService, a.Storage.JobStorage(), logger).Handle)
	} else {
		logger.Warn().Msg("Provider credentials not configured; discover and scrape jobs disabled")
	}

	// Classification-backed handler: review analysis.
	if cfg.Claude.APIKey != "" {
		claudeService, err := classifier.NewClaudeService(&cfg.Claude, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Claude classifier unavailable; analyze jobs disabled")
		} else {
			analysisService := analysis.NewService(
				claudeService,
				a.Storage.JobStorage(),
				a.Storage.CheckpointStorage(),
				a.Storage.ArtifactStorage(),
				cfg.Analysis.ProgressEvery,
				cfg.Analysis.CheckpointEvery,
				cfg.Analysis.SampleSize,
				logger,
			)
			a.Worker.RegisterHandler(models.JobKindAnalyze,
				workers.NewAnalyzeWorker(analysisService, a.Storage.JobStorage(), logger).Handle)
		}
	} else {
		logger.Warn().Msg("Anthropic API key not configured; analyze jobs disabled")
	}

	// Website analysis handler.
	if cfg.Gemini.APIKey != "" {
		websiteService, err := website.NewService(ctx, &cfg.Gemini, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Gemini analyzer unavailable; website jobs disabled")
		} else {
			a.Worker.RegisterHandler(models.JobKindWebsiteAnalysis,
				workers.NewWebsiteWorker(websiteService, a.Storage.ArtifactStorage(), a.Storage.JobStorage(), logger).Handle)
		}
	} else {
		logger.Warn().Msg("Gemini API key not configured; website jobs disabled")
	}
}

// Start begins background processing: the worker loop and the reaper.
func (a *App) Start() error {
	a.Worker.Start()

	if a.Config.Reaper.Enabled {
		if err := a.Reaper.Start(); err != nil {
			return err
		}
	}

	return nil
}

// Close shuts down background processing and releases resources.
func (a *App) Close() error {
	if a.Config.Reaper.Enabled {
		a.Reaper.Stop()
	}
	a.Worker.Stop()

	if err := a.Queue.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close queue")
	}
	return a.Storage.Close()
}
