package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ghiblify/avatar-api/internal/domain"
	"github.com/ghiblify/avatar-api/internal/events"
	"github.com/ghiblify/avatar-api/internal/platform/logger"
	"github.com/ghiblify/avatar-api/internal/store"
	"github.com/ghiblify/avatar-api/internal/task"
)

// AvatarService owns the avatar generation lifecycle from the caller's point
// of view: it accepts submissions, answers status queries, and lists history.
// All post-submission state changes happen in the background worker; the
// service never mutates a record after creating it.
type AvatarService struct {
	store            store.GenerationStore
	db               *sql.DB
	eventEmitter     events.EventEmitter
	estimatedSeconds int
	logger           *slog.Logger
}

// NewAvatarService creates an AvatarService. db may be nil, in which case
// record creation happens without an explicit transaction; this is the mode
// used with the in-memory store in tests.
func NewAvatarService(
	generationStore store.GenerationStore,
	db *sql.DB,
	eventEmitter events.EventEmitter,
	estimatedSeconds int,
	log *slog.Logger,
) (*AvatarService, error) {
	if generationStore == nil {
		return nil, fmt.Errorf("generation store cannot be nil")
	}
	if eventEmitter == nil {
		return nil, fmt.Errorf("event emitter cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &AvatarService{
		store:            generationStore,
		db:               db,
		eventEmitter:     eventEmitter,
		estimatedSeconds: estimatedSeconds,
		logger:           log.With(slog.String("component", "avatar_service")),
	}, nil
}

// EstimatedSeconds returns the configured processing time estimate reported
// to clients at submission.
func (s *AvatarService) EstimatedSeconds() int {
	return s.estimatedSeconds
}

// Submit validates the image payload, creates a pending generation record,
// and dispatches the background task. It returns as soon as the record is
// persisted and the task enqueued; the caller observes progress through
// GetStatus. An empty payload is rejected before any record is created.
func (s *AvatarService) Submit(ctx context.Context, imageRef string) (*domain.GenerationTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(imageRef) == "" {
		return nil, fmt.Errorf("%w: image payload is empty", ErrInvalidInput)
	}

	genTask, err := domain.NewGenerationTask(imageRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if s.db != nil {
		err = store.RunInTransaction(ctx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
			return s.store.WithTx(tx).Create(txCtx, genTask)
		})
	} else {
		err = s.store.Create(ctx, genTask)
	}
	if err != nil {
		log.Error("failed to create generation record", slog.String("error", err.Error()))
		return nil, NewServiceError("submit", err)
	}

	payload := task.AvatarGenerationPayload{
		TaskID:   genTask.ID,
		ImageRef: imageRef,
	}
	event, err := events.NewTaskRequestEvent(task.TaskTypeAvatarGeneration, payload)
	if err != nil {
		return nil, NewServiceError("submit", fmt.Errorf("%w: %v", ErrDispatchFailed, err))
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		// The record stays pending; the client will observe it through
		// status polling and eventually give up.
		log.Error("failed to dispatch generation task",
			slog.String("task_id", genTask.ID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("submit", fmt.Errorf("%w: %v", ErrDispatchFailed, err))
	}

	log.Info("generation task submitted",
		slog.String("task_id", genTask.ID.String()),
		slog.Int("payload_len", len(imageRef)))
	return genTask, nil
}

// GetStatus returns the current state of a generation record. It is a pure
// read: polling a terminal record any number of times returns the same
// result and never mutates it.
func (s *AvatarService) GetStatus(ctx context.Context, id uuid.UUID) (*domain.GenerationTask, error) {
	genTask, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, NewServiceError("get status", err)
	}
	return genTask, nil
}

// History lists generation records newest first, optionally filtered by
// status, along with the unfiltered total count.
func (s *AvatarService) History(ctx context.Context, status *domain.GenerationStatus, limit, offset int) ([]*domain.GenerationTask, int64, error) {
	if status != nil && !status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *status)
	}

	tasks, err := s.store.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, NewServiceError("history", err)
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, NewServiceError("history", err)
	}
	return tasks, total, nil
}
