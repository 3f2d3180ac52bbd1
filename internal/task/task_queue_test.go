package task

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTask implements the Task interface for testing.
type mockTask struct {
	id     uuid.UUID
	execFn func(ctx context.Context) (string, error)
}

func (m *mockTask) ID() uuid.UUID {
	return m.id
}

func (m *mockTask) Type() string {
	return "mock"
}

func (m *mockTask) Execute(ctx context.Context) (string, error) {
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return "mock-result", nil
}

func newMockTask() *mockTask {
	return &mockTask{id: uuid.New()}
}

func TestTaskQueueEnqueueDequeue(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(2)
	task := newMockTask()
	require.NoError(t, q.Enqueue(task))
	assert.Equal(t, 1, q.Len())

	got := <-q.Dequeue()
	assert.Equal(t, task.ID(), got.ID())
	assert.Equal(t, 0, q.Len())
}

func TestTaskQueueFull(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(1)
	require.NoError(t, q.Enqueue(newMockTask()))

	err := q.Enqueue(newMockTask())
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestTaskQueueClosed(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(1)
	q.Close()
	// Close is idempotent.
	q.Close()

	assert.ErrorIs(t, q.Enqueue(newMockTask()), ErrQueueClosed)

	// A closed queue's channel terminates range loops.
	_, open := <-q.Dequeue()
	assert.False(t, open)
}

func TestTaskQueueDrainAfterClose(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(newMockTask()))
	}
	q.Close()

	var drained int
	for range q.Dequeue() {
		drained++
	}
	assert.Equal(t, 3, drained)
}

func TestTaskQueueMinimumSize(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(0)
	assert.NoError(t, q.Enqueue(newMockTask()))
}
