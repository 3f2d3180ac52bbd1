package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ghiblify/avatar-api/internal/domain"
	"github.com/ghiblify/avatar-api/internal/platform/logger"
	"github.com/ghiblify/avatar-api/internal/store"
	"github.com/google/uuid"
)

// PostgresGenerationStore implements the store.GenerationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresGenerationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGenerationStore creates a new PostgreSQL implementation of the
// GenerationStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresGenerationStore(db store.DBTX, logger *slog.Logger) *PostgresGenerationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGenerationStore{
		db:     db,
		logger: logger.With(slog.String("component", "generation_store")),
	}
}

// Ensure PostgresGenerationStore implements store.GenerationStore.
var _ store.GenerationStore = (*PostgresGenerationStore)(nil)

// Create implements store.GenerationStore.Create.
// Returns store.ErrStoreUnavailable when the database cannot be reached,
// so the submitter can refuse the request without creating a task.
func (s *PostgresGenerationStore) Create(ctx context.Context, task *domain.GenerationTask) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("generation task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO generations (id, status, input_reference, result_reference, error_detail, processing_ms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Status,
		task.InputReference,
		task.ResultReference,
		task.ErrorDetail,
		task.ProcessingMs,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if isConnectionError(err) {
			log.Error("database unreachable during generation create",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			return fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
		}

		if isUniqueViolation(err) {
			log.Warn("generation task id already exists",
				slog.String("task_id", task.ID.String()))
			return fmt.Errorf("%w: duplicate generation id %s", store.ErrInvalidEntity, task.ID)
		}

		log.Error("failed to create generation task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("generation", "create", "insert failed", err)
	}

	log.Info("generation task created",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByID implements store.GenerationStore.GetByID.
// Returns store.ErrGenerationNotFound if the task does not exist.
func (s *PostgresGenerationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, status, input_reference, result_reference, error_detail, processing_ms, created_at, updated_at
		FROM generations
		WHERE id = $1
	`

	task, err := scanGeneration(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("generation task not found", slog.String("task_id", id.String()))
			return nil, store.ErrGenerationNotFound
		}
		log.Error("failed to get generation task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("generation", "get", "query failed", err)
	}

	return task, nil
}

// MarkProcessing implements store.GenerationStore.MarkProcessing.
// The pending guard lives in the WHERE clause: a task that already moved
// on cannot be pulled back.
func (s *PostgresGenerationStore) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE generations
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	return s.guardedUpdate(ctx, id, "mark_processing", query,
		domain.GenerationStatusProcessing,
		time.Now().UTC(),
		id,
		domain.GenerationStatusPending,
	)
}

// CompleteSuccess implements store.GenerationStore.CompleteSuccess.
func (s *PostgresGenerationStore) CompleteSuccess(
	ctx context.Context,
	id uuid.UUID,
	resultReference string,
	elapsed time.Duration,
) error {
	if resultReference == "" {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyResultReference)
	}

	query := `
		UPDATE generations
		SET status = $1, result_reference = $2, processing_ms = $3, updated_at = $4
		WHERE id = $5 AND status = $6
	`
	return s.guardedUpdate(ctx, id, "complete_success", query,
		domain.GenerationStatusSuccess,
		resultReference,
		elapsed.Milliseconds(),
		time.Now().UTC(),
		id,
		domain.GenerationStatusProcessing,
	)
}

// CompleteFailure implements store.GenerationStore.CompleteFailure.
func (s *PostgresGenerationStore) CompleteFailure(
	ctx context.Context,
	id uuid.UUID,
	errorDetail string,
	elapsed time.Duration,
) error {
	if errorDetail == "" {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyErrorDetail)
	}

	query := `
		UPDATE generations
		SET status = $1, error_detail = $2, processing_ms = $3, updated_at = $4
		WHERE id = $5 AND status = $6
	`
	return s.guardedUpdate(ctx, id, "complete_failure", query,
		domain.GenerationStatusFailed,
		errorDetail,
		elapsed.Milliseconds(),
		time.Now().UTC(),
		id,
		domain.GenerationStatusProcessing,
	)
}

// guardedUpdate runs a status-guarded UPDATE and maps a zero row count to
// either not-found or an invalid transition, depending on whether the row
// exists at all.
func (s *PostgresGenerationStore) guardedUpdate(
	ctx context.Context,
	id uuid.UUID,
	operation string,
	query string,
	args ...any,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isConnectionError(err) {
			log.Error("database unreachable during generation update",
				slog.String("operation", operation),
				slog.String("error", err.Error()),
				slog.String("task_id", id.String()))
			return fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
		}

		log.Error("failed to update generation task",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return store.NewStoreError("generation", operation, "update failed", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("generation", operation, "rows affected unavailable", err)
	}

	if rowsAffected == 0 {
		if _, getErr := s.GetByID(ctx, id); errors.Is(getErr, store.ErrGenerationNotFound) {
			return store.ErrGenerationNotFound
		}

		log.Warn("generation status transition rejected",
			slog.String("operation", operation),
			slog.String("task_id", id.String()))
		return fmt.Errorf("%w: %s rejected by status guard", store.ErrUpdateFailed, operation)
	}

	return nil
}

// ListByStatus implements store.GenerationStore.ListByStatus.
func (s *PostgresGenerationStore) ListByStatus(
	ctx context.Context,
	status *domain.GenerationStatus,
	limit, offset int,
) ([]*domain.GenerationTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var rows *sql.Rows
	var err error

	if status != nil {
		query := `
			SELECT id, status, input_reference, result_reference, error_detail, processing_ms, created_at, updated_at
			FROM generations
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`
		rows, err = s.db.QueryContext(ctx, query, *status, limit, offset)
	} else {
		query := `
			SELECT id, status, input_reference, result_reference, error_detail, processing_ms, created_at, updated_at
			FROM generations
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`
		rows, err = s.db.QueryContext(ctx, query, limit, offset)
	}

	if err != nil {
		log.Error("failed to list generation tasks",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("generation", "list", "query failed", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.GenerationTask, 0)
	for rows.Next() {
		task, err := scanGeneration(rows)
		if err != nil {
			log.Error("failed to scan generation row",
				slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generation rows: %w", err)
	}

	return tasks, nil
}

// Count implements store.GenerationStore.Count.
func (s *PostgresGenerationStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generations`).Scan(&count)
	if err != nil {
		return 0, store.NewStoreError("generation", "count", "query failed", err)
	}
	return count, nil
}

// WithTx implements store.GenerationStore.WithTx.
func (s *PostgresGenerationStore) WithTx(tx *sql.Tx) store.GenerationStore {
	return &PostgresGenerationStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*domain.GenerationTask, error) {
	var task domain.GenerationTask
	var status string
	var resultReference, errorDetail sql.NullString
	var processingMs sql.NullInt64

	err := row.Scan(
		&task.ID,
		&status,
		&task.InputReference,
		&resultReference,
		&errorDetail,
		&processingMs,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.GenerationStatus(status)
	task.ResultReference = resultReference.String
	task.ErrorDetail = errorDetail.String
	task.ProcessingMs = processingMs.Int64

	return &task, nil
}
