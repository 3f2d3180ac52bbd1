package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/ghiblify/avatar-api/internal/config"
	"github.com/ghiblify/avatar-api/internal/events"
	"github.com/ghiblify/avatar-api/internal/generation"
	"github.com/ghiblify/avatar-api/internal/platform/fetch"
	"github.com/ghiblify/avatar-api/internal/platform/openai"
	"github.com/ghiblify/avatar-api/internal/platform/postgres"
	"github.com/ghiblify/avatar-api/internal/service"
	"github.com/ghiblify/avatar-api/internal/store"
	"github.com/ghiblify/avatar-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	generationStore store.GenerationStore
	generator       generation.Generator
	extractor       *generation.Extractor
	fetcher         generation.Fetcher

	eventEmitter  events.EventEmitter
	avatarService *service.AvatarService
	taskRunner    *task.TaskRunner

	sentryEnabled bool
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies that must be established before
// application wiring: configuration, logger, and database connection.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn: cfg.Sentry.DSN,
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
		app.sentryEnabled = true
		logger.Info("sentry error reporting enabled")
	}

	app.generationStore = postgres.NewPostgresGenerationStore(db, logger)

	app.fetcher = fetch.NewHTTPFetcher(nil, "")

	var err error
	app.extractor, err = generation.NewExtractor(
		cfg.Capability.TrustedCDNHost,
		cfg.Capability.RestrictedHosts,
		app.fetcher,
		logger.With("component", "result_extractor"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize result extractor: %w", err)
	}

	app.generator, err = openai.NewGenerator(cfg.Capability, logger.With("component", "avatar_generator"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize avatar generator: %w", err)
	}
	logger.Info("avatar generator initialized",
		"base_url", cfg.Capability.BaseURL,
		"chat_model", cfg.Capability.ChatModel)

	app.taskRunner = task.NewTaskRunner(app.generationStore, task.TaskRunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)
	app.taskRunner.SetErrorHandler(app.reportWorkerError)
	app.taskRunner.Start()

	emitter := events.NewInMemoryEventEmitter(logger)
	taskFactory := task.NewAvatarGenerationTaskFactory(app.generator, app.extractor, logger)
	emitter.RegisterHandler(task.NewTaskRequestHandler(app.taskRunner, taskFactory, logger))
	app.eventEmitter = emitter

	app.avatarService, err = service.NewAvatarService(
		app.generationStore,
		db,
		app.eventEmitter,
		cfg.Task.EstimatedSeconds,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create avatar service: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// reportWorkerError is the task runner's error sink. Worker errors have no
// request to respond to, so they are logged and forwarded to sentry when
// configured.
func (app *application) reportWorkerError(taskID uuid.UUID, taskType string, err error) {
	app.logger.Error("background task error",
		"task_id", taskID.String(),
		"task_type", taskType,
		"error", err.Error())
	if app.sentryEnabled {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("task_type", taskType)
			scope.SetTag("task_id", taskID.String())
			sentry.CaptureException(err)
		})
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	if app.sentryEnabled {
		sentry.Flush(2 * time.Second)
	}

	app.logger.Info("application shutdown completed")
}
