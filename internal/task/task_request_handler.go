package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ghiblify/avatar-api/internal/events"
)

// AvatarGenerationPayload is the event payload carried by avatar generation
// task requests. ImageRef holds the full submitted image, which never
// touches the database.
type AvatarGenerationPayload struct {
	TaskID   uuid.UUID `json:"task_id"`
	ImageRef string    `json:"image_ref"`
}

// TaskRequestHandler turns task request events into queued background tasks.
// It implements events.EventHandler.
type TaskRequestHandler struct {
	runner  *TaskRunner
	factory *AvatarGenerationTaskFactory
	logger  *slog.Logger
}

// NewTaskRequestHandler creates a handler wiring the event stream to the runner.
func NewTaskRequestHandler(runner *TaskRunner, factory *AvatarGenerationTaskFactory, logger *slog.Logger) *TaskRequestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskRequestHandler{
		runner:  runner,
		factory: factory,
		logger:  logger.With(slog.String("component", "task_request_handler")),
	}
}

// HandleEvent creates and submits a task for supported event types. Unknown
// event types are ignored so additional handlers can coexist on the same
// emitter.
func (h *TaskRequestHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if event.Type != TaskTypeAvatarGeneration {
		return nil
	}

	var payload AvatarGenerationPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode avatar generation payload: %w", err)
	}

	t, err := h.factory.CreateTask(payload.TaskID, payload.ImageRef)
	if err != nil {
		return fmt.Errorf("failed to create avatar generation task: %w", err)
	}

	if err := h.runner.Submit(ctx, t); err != nil {
		return fmt.Errorf("failed to submit avatar generation task: %w", err)
	}

	h.logger.Debug("avatar generation task submitted",
		slog.String("task_id", payload.TaskID.String()))
	return nil
}

var _ events.EventHandler = (*TaskRequestHandler)(nil)
