package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ghiblify/avatar-api/internal/generation"
)

// AvatarGenerationTask transforms a submitted source image into a stylized
// avatar. It carries the full image payload in memory; only a truncated
// reference is persisted with the record.
type AvatarGenerationTask struct {
	taskID    uuid.UUID
	imageRef  string
	generator generation.Generator
	extractor *generation.Extractor
	logger    *slog.Logger
}

// NewAvatarGenerationTask creates a task bound to an existing generation
// record. imageRef is the untruncated image payload submitted by the client.
func NewAvatarGenerationTask(
	taskID uuid.UUID,
	imageRef string,
	generator generation.Generator,
	extractor *generation.Extractor,
	logger *slog.Logger,
) (*AvatarGenerationTask, error) {
	if taskID == uuid.Nil {
		return nil, fmt.Errorf("task ID cannot be empty")
	}
	if imageRef == "" {
		return nil, fmt.Errorf("image reference cannot be empty")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvatarGenerationTask{
		taskID:    taskID,
		imageRef:  imageRef,
		generator: generator,
		extractor: extractor,
		logger:    logger.With(slog.String("task_type", TaskTypeAvatarGeneration)),
	}, nil
}

// ID returns the generation record ID.
func (t *AvatarGenerationTask) ID() uuid.UUID {
	return t.taskID
}

// Type returns the task type identifier.
func (t *AvatarGenerationTask) Type() string {
	return TaskTypeAvatarGeneration
}

// Execute calls the generation capability and extracts a displayable result
// locator from its response. Any error here is terminal for the record; the
// runner persists it verbatim as the failure detail.
func (t *AvatarGenerationTask) Execute(ctx context.Context) (string, error) {
	log := t.logger.With(slog.String("task_id", t.taskID.String()))
	log.Info("starting avatar generation")

	response, err := t.generator.GenerateAvatar(ctx, t.imageRef)
	if err != nil {
		return "", fmt.Errorf("avatar generation failed: %w", err)
	}

	locator, err := t.extractor.Extract(ctx, response)
	if err != nil {
		return "", fmt.Errorf("no usable result in generation response: %w", err)
	}

	log.Info("avatar generation produced result", slog.Int("locator_len", len(locator)))
	return locator, nil
}

// Ensure AvatarGenerationTask implements Task.
var _ Task = (*AvatarGenerationTask)(nil)
