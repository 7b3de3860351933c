package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/handlers"
	"github.com/sahalsk/kuttappan/internal/interfaces"
	"github.com/sahalsk/kuttappan/internal/services/chat"
	"github.com/sahalsk/kuttappan/internal/services/indexer"
	"github.com/sahalsk/kuttappan/internal/services/llm"
	"github.com/sahalsk/kuttappan/internal/services/ratelimit"
	"github.com/sahalsk/kuttappan/internal/services/store"
	"github.com/sahalsk/kuttappan/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	// Pipeline services
	LLMService  interfaces.LLMService
	Store       interfaces.DocumentStore
	ChatService interfaces.ChatService
	RateLimiter interfaces.RateLimiter
	Indexer     *indexer.Indexer

	// HTTP handlers
	ChatHandler       *handlers.ChatHandler
	SeedHandler       *handlers.SeedHandler
	TranscriptHandler *handlers.TranscriptHandler
	StatusHandler     *handlers.StatusHandler

	scheduler *cron.Cron
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if err := app.initScheduler(); err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	logger.Info().
		Str("provider", app.LLMService.Provider()).
		Str("environment", cfg.Environment).
		Msg("Application initialized")

	return app, nil
}

// initStorage opens the local transcript database when enabled.
func (a *App) initStorage() error {
	if !a.Config.Storage.Badger.Enabled {
		a.Logger.Info().Msg("Transcript storage disabled")
		return nil
	}

	manager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.StorageManager = manager
	return nil
}

func (a *App) initServices() error {
	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("llm service: %w", err)
	}
	a.LLMService = llmService

	documentStore, err := store.NewSupabaseStore(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("document store: %w", err)
	}
	a.Store = documentStore

	var transcripts interfaces.TranscriptStorage
	if a.StorageManager != nil {
		transcripts = a.StorageManager.TranscriptStorage()
	}

	a.ChatService = chat.NewService(a.Config, a.LLMService, a.Store, transcripts, a.Logger)
	a.RateLimiter = ratelimit.NewFixedWindow(&a.Config.RateLimit)
	a.Indexer = indexer.New(a.Config, a.LLMService, a.Store, a.Logger)

	return nil
}

func (a *App) initHandlers() {
	var transcripts interfaces.TranscriptStorage
	if a.StorageManager != nil {
		transcripts = a.StorageManager.TranscriptStorage()
	}

	a.ChatHandler = handlers.NewChatHandler(a.ChatService, a.RateLimiter, a.Logger)
	a.SeedHandler = handlers.NewSeedHandler(a.Indexer, a.Config, a.Logger)
	a.TranscriptHandler = handlers.NewTranscriptHandler(transcripts, a.Config, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.Logger)
}

// initScheduler starts the optional periodic re-index job.
func (a *App) initScheduler() error {
	schedule := a.Config.Indexer.Schedule
	if schedule == "" {
		return nil
	}

	a.scheduler = cron.New()
	_, err := a.scheduler.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		count, err := a.Indexer.Reindex(ctx)
		if err != nil {
			a.Logger.Error().Err(err).Msg("Scheduled re-index failed")
			return
		}
		a.Logger.Info().Int("indexed", count).Msg("Scheduled re-index completed")
	})
	if err != nil {
		return fmt.Errorf("invalid indexer schedule '%s': %w", schedule, err)
	}

	a.scheduler.Start()
	a.Logger.Info().Str("schedule", schedule).Msg("Re-index scheduler started")
	return nil
}

// Close shuts down all application components
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
