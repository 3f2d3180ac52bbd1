// Package events provides a minimal in-process event system decoupling the
// submission service from background task construction.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskRequestEvent asks for a background task to be built and enqueued.
// The submission service emits one per accepted generation; the payload
// carries everything the worker needs, including data that must never
// reach the store, such as the full image.
type TaskRequestEvent struct {
	ID   uuid.UUID `json:"id"`
	Type string    `json:"type"`

	// Payload is the task-specific data, opaque to the emitter.
	Payload json.RawMessage `json:"payload"`

	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *TaskRequestEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent builds an event of the given type around a
// JSON-serializable payload.
func NewTaskRequestEvent(eventType string, payload interface{}) (*TaskRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler consumes emitted events. Handlers decide per event type
// whether the event is theirs to act on.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter publishes events to whatever handlers are registered,
// keeping the service unaware of the task machinery behind them.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
