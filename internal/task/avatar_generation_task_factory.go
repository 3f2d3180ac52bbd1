package task

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/ghiblify/avatar-api/internal/generation"
)

// AvatarGenerationTaskFactory creates avatar generation tasks with their
// shared dependencies pre-wired.
type AvatarGenerationTaskFactory struct {
	generator generation.Generator
	extractor *generation.Extractor
	logger    *slog.Logger
}

// NewAvatarGenerationTaskFactory creates a factory for avatar generation tasks.
func NewAvatarGenerationTaskFactory(
	generator generation.Generator,
	extractor *generation.Extractor,
	logger *slog.Logger,
) *AvatarGenerationTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &AvatarGenerationTaskFactory{
		generator: generator,
		extractor: extractor,
		logger:    logger,
	}
}

// CreateTask builds a task for the given generation record and image payload.
func (f *AvatarGenerationTaskFactory) CreateTask(taskID uuid.UUID, imageRef string) (Task, error) {
	return NewAvatarGenerationTask(taskID, imageRef, f.generator, f.extractor, f.logger)
}
