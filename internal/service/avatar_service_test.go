package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghiblify/avatar-api/internal/domain"
	"github.com/ghiblify/avatar-api/internal/events"
	"github.com/ghiblify/avatar-api/internal/store"
	"github.com/ghiblify/avatar-api/internal/task"
)

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	events []*events.TaskRequestEvent
	err    error
}

func (e *recordingEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

func newTestService(t *testing.T, memStore store.GenerationStore, emitter events.EventEmitter) *AvatarService {
	t.Helper()
	svc, err := NewAvatarService(memStore, nil, emitter, 100, nil)
	require.NoError(t, err)
	return svc
}

func TestNewAvatarServiceValidation(t *testing.T) {
	t.Parallel()

	_, err := NewAvatarService(nil, nil, &recordingEmitter{}, 100, nil)
	assert.Error(t, err)

	_, err = NewAvatarService(store.NewMemoryGenerationStore(), nil, nil, 100, nil)
	assert.Error(t, err)
}

func TestSubmitCreatesPendingAndDispatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	memStore := store.NewMemoryGenerationStore()
	emitter := &recordingEmitter{}
	svc := newTestService(t, memStore, emitter)

	payload := "data:image/png;base64," + strings.Repeat("A", 200)
	genTask, err := svc.Submit(ctx, payload)
	require.NoError(t, err)

	assert.Equal(t, domain.GenerationStatusPending, genTask.Status)

	// The record holds only the truncated reference.
	stored, err := memStore.GetByID(ctx, genTask.ID)
	require.NoError(t, err)
	assert.Len(t, stored.InputReference, domain.InputReferenceMaxLen+3)
	assert.True(t, strings.HasSuffix(stored.InputReference, "..."))

	// The dispatched event carries the full payload.
	require.Len(t, emitter.events, 1)
	assert.Equal(t, task.TaskTypeAvatarGeneration, emitter.events[0].Type)
	var eventPayload task.AvatarGenerationPayload
	require.NoError(t, emitter.events[0].UnmarshalPayload(&eventPayload))
	assert.Equal(t, genTask.ID, eventPayload.TaskID)
	assert.Equal(t, payload, eventPayload.ImageRef)
}

func TestSubmitEmptyPayloadCreatesNoRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	memStore := store.NewMemoryGenerationStore()
	emitter := &recordingEmitter{}
	svc := newTestService(t, memStore, emitter)

	for _, payload := range []string{"", "   ", "\n\t"} {
		_, err := svc.Submit(ctx, payload)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	count, err := memStore.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "rejected submissions must not create records")
	assert.Empty(t, emitter.events)
}

func TestSubmitStoreUnavailable(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryGenerationStore()
	memStore.FailNext = true
	emitter := &recordingEmitter{}
	svc := newTestService(t, memStore, emitter)

	_, err := svc.Submit(context.Background(), "payload")
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.Empty(t, emitter.events, "no dispatch without a persisted record")
}

func TestSubmitDispatchFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	memStore := store.NewMemoryGenerationStore()
	emitter := &recordingEmitter{err: errors.New("queue closed")}
	svc := newTestService(t, memStore, emitter)

	_, err := svc.Submit(ctx, "payload")
	assert.ErrorIs(t, err, ErrDispatchFailed)

	// The record exists and stays pending; the client sees it via polling.
	count, err := memStore.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	memStore := store.NewMemoryGenerationStore()
	svc := newTestService(t, memStore, &recordingEmitter{})

	genTask, err := svc.Submit(ctx, "payload")
	require.NoError(t, err)

	got, err := svc.GetStatus(ctx, genTask.ID)
	require.NoError(t, err)
	assert.Equal(t, genTask.ID, got.ID)
	assert.Equal(t, domain.GenerationStatusPending, got.Status)

	// Unknown IDs surface the store's not-found error unchanged.
	_, err = svc.GetStatus(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetStatusIsReadOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	memStore := store.NewMemoryGenerationStore()
	svc := newTestService(t, memStore, &recordingEmitter{})

	genTask, err := svc.Submit(ctx, "payload")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		got, err := svc.GetStatus(ctx, genTask.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.GenerationStatusPending, got.Status)
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	memStore := store.NewMemoryGenerationStore()
	svc := newTestService(t, memStore, &recordingEmitter{})

	for i := 0; i < 3; i++ {
		_, err := svc.Submit(ctx, "payload")
		require.NoError(t, err)
	}

	tasks, total, err := svc.History(ctx, nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
	assert.Equal(t, int64(3), total)

	pending := domain.GenerationStatusPending
	tasks, total, err = svc.History(ctx, &pending, 10, 0)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
	assert.Equal(t, int64(3), total)

	success := domain.GenerationStatusSuccess
	tasks, _, err = svc.History(ctx, &success, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	bogus := domain.GenerationStatus("archived")
	_, _, err = svc.History(ctx, &bogus, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
