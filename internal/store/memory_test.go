package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghiblify/avatar-api/internal/domain"
)

func newPendingTask(t *testing.T) *domain.GenerationTask {
	t.Helper()
	task, err := domain.NewGenerationTask("data:image/png;base64,AAAA")
	require.NoError(t, err)
	return task
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryGenerationStore()

	task := newPendingTask(t)
	require.NoError(t, s.Create(ctx, task))

	got, err := s.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, domain.GenerationStatusPending, got.Status)

	// Stores return copies; mutating the result must not affect the record.
	got.Status = domain.GenerationStatusFailed
	again, err := s.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GenerationStatusPending, again.Status)
}

func TestMemoryStoreGetUnknownID(t *testing.T) {
	t.Parallel()
	s := NewMemoryGenerationStore()

	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrGenerationNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFoundError(err))
}

func TestMemoryStoreTransitionGuards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryGenerationStore()

	task := newPendingTask(t)
	require.NoError(t, s.Create(ctx, task))

	// Terminal writes before processing are rejected.
	err := s.CompleteSuccess(ctx, task.ID, "result", time.Second)
	assert.ErrorIs(t, err, ErrUpdateFailed)

	require.NoError(t, s.MarkProcessing(ctx, task.ID))

	// Double processing is rejected.
	assert.ErrorIs(t, s.MarkProcessing(ctx, task.ID), ErrUpdateFailed)

	require.NoError(t, s.CompleteSuccess(ctx, task.ID, "https://cdn/img.png", 900*time.Millisecond))

	got, err := s.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GenerationStatusSuccess, got.Status)
	assert.Equal(t, "https://cdn/img.png", got.ResultReference)
	assert.Equal(t, int64(900), got.ProcessingMs)

	// A terminal record rejects every further transition.
	assert.ErrorIs(t, s.CompleteFailure(ctx, task.ID, "boom", time.Second), ErrUpdateFailed)
	assert.ErrorIs(t, s.CompleteSuccess(ctx, task.ID, "other", time.Second), ErrUpdateFailed)
	assert.ErrorIs(t, s.MarkProcessing(ctx, task.ID), ErrUpdateFailed)

	// Repeated reads of a terminal record are stable.
	for i := 0; i < 3; i++ {
		read, err := s.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, got, read)
	}
}

func TestMemoryStoreFailureTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryGenerationStore()

	task := newPendingTask(t)
	require.NoError(t, s.Create(ctx, task))
	require.NoError(t, s.MarkProcessing(ctx, task.ID))
	require.NoError(t, s.CompleteFailure(ctx, task.ID, "model timeout", 3*time.Second))

	got, err := s.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GenerationStatusFailed, got.Status)
	assert.Equal(t, "model timeout", got.ErrorDetail)
	assert.Empty(t, got.ResultReference)
}

func TestMemoryStoreFailNext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryGenerationStore()

	s.FailNext = true
	err := s.Create(ctx, newPendingTask(t))
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	// The flag is one-shot.
	assert.NoError(t, s.Create(ctx, newPendingTask(t)))
}

func TestMemoryStoreListByStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryGenerationStore()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		task := newPendingTask(t)
		task.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Create(ctx, task))
		ids = append(ids, task.ID)
	}
	require.NoError(t, s.MarkProcessing(ctx, ids[0]))
	require.NoError(t, s.CompleteSuccess(ctx, ids[0], "result", time.Second))

	all, err := s.ListByStatus(ctx, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	// Newest first.
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}

	pending := domain.GenerationStatusPending
	onlyPending, err := s.ListByStatus(ctx, &pending, 10, 0)
	require.NoError(t, err)
	assert.Len(t, onlyPending, 4)

	success := domain.GenerationStatusSuccess
	onlySuccess, err := s.ListByStatus(ctx, &success, 10, 0)
	require.NoError(t, err)
	require.Len(t, onlySuccess, 1)
	assert.Equal(t, ids[0], onlySuccess[0].ID)

	// Pagination.
	page, err := s.ListByStatus(ctx, nil, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	rest, err := s.ListByStatus(ctx, nil, 10, 4)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	none, err := s.ListByStatus(ctx, nil, 10, 99)
	require.NoError(t, err)
	assert.Empty(t, none)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}
