// Package task implements the in-process background task machinery that
// turns submitted avatar generation requests into terminal records. A
// buffered queue decouples HTTP submission from the worker pool; workers
// own every status transition after submission.
package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskTypeAvatarGeneration identifies avatar generation tasks.
const TaskTypeAvatarGeneration = "avatar_generation"

// Task represents a unit of background work tied to a generation record.
// Execute performs the work and returns the result locator to persist on
// success. A Task never writes status itself; the runner owns the record
// lifecycle so that exactly one terminal write happens per task.
type Task interface {
	// ID returns the generation record this task belongs to.
	ID() uuid.UUID

	// Type returns the task type identifier.
	Type() string

	// Execute performs the task and returns the result locator.
	Execute(ctx context.Context) (string, error)
}
