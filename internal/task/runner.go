package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ghiblify/avatar-api/internal/platform/logger"
	"github.com/ghiblify/avatar-api/internal/store"
)

// ErrorHandler receives errors from the worker pool that cannot be returned
// to any caller, such as capability failures and failed store writes.
type ErrorHandler func(taskID uuid.UUID, taskType string, err error)

// TaskRunnerConfig holds configuration for the task runner.
type TaskRunnerConfig struct {
	// WorkerCount is the number of concurrent workers consuming the queue.
	WorkerCount int

	// QueueSize is the capacity of the task queue buffer.
	QueueSize int
}

// TaskRunner dispatches background tasks to a pool of workers. Submission is
// fire and forget: Submit enqueues and returns immediately, and the record's
// remaining lifecycle is driven entirely by a worker goroutine. A task runs
// at most once; there is no recovery or re-dispatch of interrupted work, so
// a crash mid-task intentionally leaves the record in processing.
type TaskRunner struct {
	queue      *TaskQueue
	store      store.GenerationStore
	config     TaskRunnerConfig
	logger     *slog.Logger
	onError    ErrorHandler
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewTaskRunner creates a task runner backed by the given store.
// If logger is nil, slog.Default() is used.
func NewTaskRunner(generationStore store.GenerationStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	return &TaskRunner{
		queue:  NewTaskQueue(config.QueueSize),
		store:  generationStore,
		config: config,
		logger: logger.With(slog.String("component", "task_runner")),
	}
}

// SetErrorHandler installs a sink for worker errors. Must be called before
// Start. The handler runs in worker goroutines and must not block.
func (r *TaskRunner) SetErrorHandler(h ErrorHandler) {
	r.onError = h
}

// Start launches the worker pool. Workers run on a background context that
// is detached from any request, so in-flight tasks survive the request that
// submitted them.
func (r *TaskRunner) Start() {
	r.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		r.cancelFunc = cancel

		r.logger.Info("starting task runner",
			slog.Int("worker_count", r.config.WorkerCount),
			slog.Int("queue_size", r.config.QueueSize))

		for i := 0; i < r.config.WorkerCount; i++ {
			r.wg.Add(1)
			go r.worker(ctx, i)
		}
	})
}

// Stop closes the queue and waits for workers to finish their current task.
func (r *TaskRunner) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Info("stopping task runner")
		r.queue.Close()
		r.wg.Wait()
		if r.cancelFunc != nil {
			r.cancelFunc()
		}
	})
}

// Submit enqueues a task for background execution and returns immediately.
// Returns ErrQueueFull or ErrQueueClosed when the task cannot be accepted;
// the caller decides whether that is fatal for the submission.
func (r *TaskRunner) Submit(ctx context.Context, t Task) error {
	if err := r.queue.Enqueue(t); err != nil {
		return err
	}
	log := logger.FromContextOrDefault(ctx, r.logger)
	log.Debug("task enqueued",
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()),
		slog.Int("queue_depth", r.queue.Len()))
	return nil
}

func (r *TaskRunner) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With(slog.Int("worker_id", id))
	log.Debug("worker started")

	for t := range r.queue.Dequeue() {
		select {
		case <-ctx.Done():
			log.Info("worker context cancelled, skipping task",
				slog.String("task_id", t.ID().String()))
			continue
		default:
		}
		r.processTask(ctx, t, log)
	}
	log.Debug("worker stopped")
}

// processTask drives a single task through the processing and terminal
// transitions. The elapsed duration persisted with the terminal write is
// measured from the moment a worker picks the task up, so queue wait time
// is excluded.
func (r *TaskRunner) processTask(ctx context.Context, t Task, log *slog.Logger) {
	taskID := t.ID()
	log = log.With(
		slog.String("task_id", taskID.String()),
		slog.String("task_type", t.Type()))

	start := time.Now()

	if err := r.store.MarkProcessing(ctx, taskID); err != nil {
		log.Error("failed to mark task processing", slog.String("error", err.Error()))
		r.reportError(taskID, t.Type(), err)
		return
	}

	result, execErr := t.Execute(ctx)
	elapsed := time.Since(start)

	if execErr != nil {
		log.Error("task execution failed",
			slog.String("error", execErr.Error()),
			slog.Int64("elapsed_ms", elapsed.Milliseconds()))
		r.reportError(taskID, t.Type(), execErr)
		if err := r.store.CompleteFailure(ctx, taskID, execErr.Error(), elapsed); err != nil {
			log.Error("failed to record task failure", slog.String("error", err.Error()))
			r.reportError(taskID, t.Type(), err)
		}
		return
	}

	if err := r.store.CompleteSuccess(ctx, taskID, result, elapsed); err != nil {
		log.Error("failed to record task success", slog.String("error", err.Error()))
		r.reportError(taskID, t.Type(), err)
		return
	}

	log.Info("task completed", slog.Int64("elapsed_ms", elapsed.Milliseconds()))
}

func (r *TaskRunner) reportError(taskID uuid.UUID, taskType string, err error) {
	if r.onError != nil {
		r.onError(taskID, taskType, err)
	}
}
