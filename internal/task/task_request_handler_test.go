package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghiblify/avatar-api/internal/domain"
	"github.com/ghiblify/avatar-api/internal/events"
	"github.com/ghiblify/avatar-api/internal/store"
)

func TestTaskRequestHandlerEndToEnd(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryGenerationStore()
	rec := createPendingRecord(t, memStore)

	runner := NewTaskRunner(memStore, TaskRunnerConfig{WorkerCount: 1, QueueSize: 4}, nil)
	runner.Start()
	defer runner.Stop()

	gen := &fakeGenerator{
		response: "![avatar](https://filesystem.site/cdn/20240101/done.png)",
	}
	factory := NewAvatarGenerationTaskFactory(gen, newTestExtractor(t), nil)
	handler := NewTaskRequestHandler(runner, factory, nil)

	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(handler)

	event, err := events.NewTaskRequestEvent(TaskTypeAvatarGeneration, AvatarGenerationPayload{
		TaskID:   rec.ID,
		ImageRef: "data:image/png;base64,AAAA",
	})
	require.NoError(t, err)
	require.NoError(t, emitter.EmitEvent(context.Background(), event))

	final := waitForTerminal(t, memStore, rec.ID)
	assert.Equal(t, domain.GenerationStatusSuccess, final.Status)
	assert.Equal(t, "https://filesystem.site/cdn/20240101/done.png", final.ResultReference)
}

func TestTaskRequestHandlerIgnoresOtherEventTypes(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryGenerationStore()
	runner := NewTaskRunner(memStore, TaskRunnerConfig{WorkerCount: 1, QueueSize: 1}, nil)
	factory := NewAvatarGenerationTaskFactory(&fakeGenerator{}, newTestExtractor(t), nil)
	handler := NewTaskRequestHandler(runner, factory, nil)

	event, err := events.NewTaskRequestEvent("unrelated_event", map[string]string{"k": "v"})
	require.NoError(t, err)

	assert.NoError(t, handler.HandleEvent(context.Background(), event))
	// The queue stays empty: the next submit still fits in a size-1 buffer.
	assert.NoError(t, runner.Submit(context.Background(), newMockTask()))
}

func TestTaskRequestHandlerBadPayload(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryGenerationStore()
	runner := NewTaskRunner(memStore, TaskRunnerConfig{WorkerCount: 1, QueueSize: 1}, nil)
	factory := NewAvatarGenerationTaskFactory(&fakeGenerator{}, newTestExtractor(t), nil)
	handler := NewTaskRequestHandler(runner, factory, nil)

	event, err := events.NewTaskRequestEvent(TaskTypeAvatarGeneration, "not an object")
	require.NoError(t, err)

	assert.Error(t, handler.HandleEvent(context.Background(), event))
}
