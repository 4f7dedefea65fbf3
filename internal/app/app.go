package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/httpclient"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/services/archive"
	"github.com/ternarybob/vigil/internal/services/browser"
	"github.com/ternarybob/vigil/internal/services/consolidator"
	"github.com/ternarybob/vigil/internal/services/detector"
	"github.com/ternarybob/vigil/internal/services/extract"
	"github.com/ternarybob/vigil/internal/services/fetcher"
	"github.com/ternarybob/vigil/internal/services/llm"
	"github.com/ternarybob/vigil/internal/services/notify"
	"github.com/ternarybob/vigil/internal/services/pipeline"
	"github.com/ternarybob/vigil/internal/services/report"
	"github.com/ternarybob/vigil/internal/services/retry"
	"github.com/ternarybob/vigil/internal/services/scheduler"
	"github.com/ternarybob/vigil/internal/services/summarizer"
	badgerstorage "github.com/ternarybob/vigil/internal/storage/badger"
)

// App owns the service graph and its lifecycle. Construction wires the
// whole pipeline; Start begins the monitoring schedule; Stop tears the
// graph down in reverse order.
type App struct {
	config       *common.Config
	logger       arbor.ILogger
	storage      interfaces.StorageManager
	browser      *browser.Service
	claude       *llm.ClaudeService
	gemini       *llm.GeminiVisionService
	orchestrator *pipeline.Orchestrator
	scheduler    *scheduler.Service
}

// New builds the application from validated configuration
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storage, err := badgerstorage.NewManager(&config.Storage.Badger, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	browserService, err := browser.NewService(&config.Browser, logger)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	claude, err := llm.NewClaudeService(&config.Claude, logger)
	if err != nil {
		browserService.Close()
		storage.Close()
		return nil, fmt.Errorf("failed to create summarization client: %w", err)
	}

	gemini, err := llm.NewGeminiVisionService(&config.Gemini, logger)
	if err != nil {
		claude.Close()
		browserService.Close()
		storage.Close()
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	retryPolicy := retry.NewPolicyFromConfig(&config.Retry)

	detectorService := detector.NewService(browserService, gemini, logger)

	fetcherService := fetcher.NewService(
		browserService,
		httpclient.NewDefaultHTTPClient(2*time.Minute),
		retryPolicy,
		config.Storage.Downloads.Dir,
		config.Monitor.URL,
		logger,
	)

	summarizerService := summarizer.NewService(
		storage.CacheStorage(),
		claude,
		extract.NewExtractor(logger),
		retryPolicy,
		&config.Summarizer,
		config.Claude.InputTokenBudget,
		logger,
	)

	consolidatorService := consolidator.NewService(claude, retryPolicy, &config.Summarizer, logger)

	var notifier pipeline.Notifier
	if config.Telegram.Enabled {
		messenger := notify.NewTelegramMessenger(&config.Telegram, logger)
		notifier = notify.NewService(
			messenger,
			storage.SubscriberStorage(),
			storage.LedgerStorage(),
			&config.Telegram,
			logger,
		)
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.Options{
		Detector:     detectorService,
		Fetcher:      fetcherService,
		Summarizer:   summarizerService,
		Consolidator: consolidatorService,
		Report:       report.NewService(config.Storage.Downloads.Dir, logger),
		Packager:     archive.NewService(config.Storage.Downloads.Dir, logger),
		Notifier:     notifier,
		KeyValue:     storage.KeyValueStorage(),
		Runs:         storage.RunStorage(),
		PageURL:      config.Monitor.URL,
		Logger:       logger,
	})

	app := &App{
		config:       config,
		logger:       logger,
		storage:      storage,
		browser:      browserService,
		claude:       claude,
		gemini:       gemini,
		orchestrator: orchestrator,
		scheduler:    scheduler.NewService(orchestrator, config.Monitor.Schedule, logger),
	}

	if err := app.seedSubscribers(context.Background()); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// seedSubscribers registers the configured chat IDs. The registry has
// set semantics, so reseeding on every start is harmless.
func (a *App) seedSubscribers(ctx context.Context) error {
	for _, chatID := range a.config.Telegram.Subscribers {
		if err := a.storage.SubscriberStorage().Add(ctx, chatID); err != nil {
			return fmt.Errorf("failed to seed subscriber %s: %w", chatID, err)
		}
	}

	if len(a.config.Telegram.Subscribers) > 0 {
		a.logger.Info().
			Int("count", len(a.config.Telegram.Subscribers)).
			Msg("Configured subscribers registered")
	}
	return nil
}

// Start verifies the summarization collaborator and begins the schedule
func (a *App) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// A failing probe is logged, not fatal: the collaborator may recover
	// before the next cycle
	if err := a.claude.HealthCheck(ctx); err != nil {
		a.logger.Warn().
			Err(err).
			Msg("Summarization collaborator health check failed")
	}

	return a.scheduler.Start(a.config.Monitor.RunOnStart)
}

// RunOnce executes a single monitoring cycle outside the schedule
func (a *App) RunOnce() error {
	return a.orchestrator.RunCycle(context.Background())
}

// Stop shuts the schedule down and waits for an in-flight cycle
func (a *App) Stop() error {
	return a.scheduler.Stop()
}

// Close releases every resource in reverse construction order
func (a *App) Close() error {
	var firstErr error

	if a.gemini != nil {
		if err := a.gemini.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.claude != nil {
		if err := a.claude.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.browser != nil {
		if err := a.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
