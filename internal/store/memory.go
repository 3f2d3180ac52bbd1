package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ghiblify/avatar-api/internal/domain"
	"github.com/google/uuid"
)

// MemoryGenerationStore is an in-memory GenerationStore used by tests and
// local development. It applies the same transition guards as the Postgres
// implementation.
type MemoryGenerationStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.GenerationTask

	// FailNext forces the next mutating call to report ErrStoreUnavailable,
	// simulating an unreachable store.
	FailNext bool
}

// NewMemoryGenerationStore creates an empty in-memory store.
func NewMemoryGenerationStore() *MemoryGenerationStore {
	return &MemoryGenerationStore{
		tasks: make(map[uuid.UUID]*domain.GenerationTask),
	}
}

// Ensure MemoryGenerationStore implements GenerationStore.
var _ GenerationStore = (*MemoryGenerationStore)(nil)

func (s *MemoryGenerationStore) failIfRequested() error {
	if s.FailNext {
		s.FailNext = false
		return ErrStoreUnavailable
	}
	return nil
}

// Create implements GenerationStore.Create.
func (s *MemoryGenerationStore) Create(ctx context.Context, task *domain.GenerationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failIfRequested(); err != nil {
		return err
	}

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}

	cp := *task
	s.tasks[task.ID] = &cp
	return nil
}

// GetByID implements GenerationStore.GetByID.
func (s *MemoryGenerationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrGenerationNotFound
	}

	cp := *task
	return &cp, nil
}

// MarkProcessing implements GenerationStore.MarkProcessing.
func (s *MemoryGenerationStore) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failIfRequested(); err != nil {
		return err
	}

	task, ok := s.tasks[id]
	if !ok {
		return ErrGenerationNotFound
	}

	if err := task.MarkProcessing(); err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	return nil
}

// CompleteSuccess implements GenerationStore.CompleteSuccess.
func (s *MemoryGenerationStore) CompleteSuccess(
	ctx context.Context,
	id uuid.UUID,
	resultReference string,
	elapsed time.Duration,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failIfRequested(); err != nil {
		return err
	}

	task, ok := s.tasks[id]
	if !ok {
		return ErrGenerationNotFound
	}

	if err := task.CompleteSuccess(resultReference, elapsed); err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	return nil
}

// CompleteFailure implements GenerationStore.CompleteFailure.
func (s *MemoryGenerationStore) CompleteFailure(
	ctx context.Context,
	id uuid.UUID,
	errorDetail string,
	elapsed time.Duration,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failIfRequested(); err != nil {
		return err
	}

	task, ok := s.tasks[id]
	if !ok {
		return ErrGenerationNotFound
	}

	if err := task.CompleteFailure(errorDetail, elapsed); err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	return nil
}

// ListByStatus implements GenerationStore.ListByStatus.
func (s *MemoryGenerationStore) ListByStatus(
	ctx context.Context,
	status *domain.GenerationStatus,
	limit, offset int,
) ([]*domain.GenerationTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.GenerationTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		if status != nil && task.Status != *status {
			continue
		}
		cp := *task
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []*domain.GenerationTask{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, nil
}

// Count implements GenerationStore.Count.
func (s *MemoryGenerationStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.tasks)), nil
}

// WithTx returns the store itself; the in-memory implementation has no
// transaction support.
func (s *MemoryGenerationStore) WithTx(tx *sql.Tx) GenerationStore {
	return s
}
