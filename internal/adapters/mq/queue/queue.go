// Package queue buffers profile writes that are persisted in the background.
package queue

import (
	"context"
	"sync"

	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/pkg/metrics"
)

const defaultCapacity = 1024

// Write is the payload flowing through the queue.
type Write = model.ProfileWrite

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a write. It returns ErrFull or ErrClosed when the
	// write was not accepted.
	Enqueue(ctx context.Context, w Write) error

	// Dequeue returns the channel workers read from. It is closed once
	// the queue is closed and drained.
	Dequeue() <-chan Write

	// Len returns the number of buffered writes.
	Len() int

	// Close stops accepting writes.
	Close() error
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	writes   chan Write
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.writes = make(chan Write, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a write without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, w Write) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.writes <- w:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.writes))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the buffer.
func (q *InMemoryQueue) Dequeue() <-chan Write {
	return q.writes
}

// Len returns the number of buffered writes.
func (q *InMemoryQueue) Len() int {
	n := len(q.writes)
	metrics.UpdateQueueSize(n)
	return n
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting writes. Buffered writes stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.writes)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
