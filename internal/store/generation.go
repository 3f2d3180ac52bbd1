package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/ghiblify/avatar-api/internal/domain"
	"github.com/google/uuid"
)

// GenerationStore defines the interface for generation task persistence.
// The task record is the single point of coordination between the worker
// (sole writer after creation) and status pollers (arbitrarily many readers).
type GenerationStore interface {
	// Create saves a new generation task to the store.
	// It handles domain validation internally.
	// Returns ErrStoreUnavailable if the store cannot be reached.
	Create(ctx context.Context, task *domain.GenerationTask) error

	// GetByID retrieves a generation task by its unique ID.
	// Returns ErrGenerationNotFound if the task does not exist.
	// This is a pure read and never mutates the record.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationTask, error)

	// MarkProcessing transitions a pending task to processing.
	// Returns ErrUpdateFailed if the task is not in pending state.
	MarkProcessing(ctx context.Context, id uuid.UUID) error

	// CompleteSuccess transitions a processing task to success, recording the
	// result locator and elapsed worker time. The guard is enforced in the
	// store so a replayed write can never reopen a terminal task.
	CompleteSuccess(ctx context.Context, id uuid.UUID, resultReference string, elapsed time.Duration) error

	// CompleteFailure transitions a processing task to failed, recording the
	// failure cause and elapsed worker time.
	CompleteFailure(ctx context.Context, id uuid.UUID, errorDetail string, elapsed time.Duration) error

	// ListByStatus retrieves tasks filtered by status, newest first.
	// A nil status returns tasks in any state. Results are paginated
	// through limit and offset.
	ListByStatus(ctx context.Context, status *domain.GenerationStatus, limit, offset int) ([]*domain.GenerationTask, error)

	// Count returns the total number of generation tasks in the store.
	Count(ctx context.Context) (int64, error)

	// WithTx returns a new GenerationStore instance that uses the provided
	// transaction. The transaction should be created and managed by the
	// caller (typically a service).
	WithTx(tx *sql.Tx) GenerationStore
}
