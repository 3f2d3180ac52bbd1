package task

import (
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned when the queue has reached capacity and
	// cannot accept more tasks without blocking.
	ErrQueueFull = errors.New("task queue is full")

	// ErrQueueClosed is returned when enqueueing on a closed queue.
	ErrQueueClosed = errors.New("task queue is closed")
)

// TaskQueue is a bounded in-memory queue of background tasks. Enqueue never
// blocks; a full queue is reported to the caller instead of stalling the
// submission path.
type TaskQueue struct {
	ch     chan Task
	mu     sync.Mutex
	closed bool
}

// NewTaskQueue creates a queue with the given capacity.
func NewTaskQueue(size int) *TaskQueue {
	if size <= 0 {
		size = 1
	}
	return &TaskQueue{ch: make(chan Task, size)}
}

// Enqueue adds a task without blocking. Returns ErrQueueFull when the buffer
// is at capacity and ErrQueueClosed after Close.
func (q *TaskQueue) Enqueue(t Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue returns the receive side of the queue for worker consumption.
// The channel is closed when the queue is closed.
func (q *TaskQueue) Dequeue() <-chan Task {
	return q.ch
}

// Close marks the queue closed and closes the underlying channel, letting
// workers drain remaining tasks and exit. Safe to call more than once.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Len reports the number of tasks currently buffered.
func (q *TaskQueue) Len() int {
	return len(q.ch)
}
