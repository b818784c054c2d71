package notify

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrQueueClosed = errors.New("notification queue closed")
	ErrQueueFull   = errors.New("notification queue full")
)

type Queue interface {
	// Enqueue must not block the caller.
	Enqueue(ctx context.Context, msg Message) error
	// Dequeue blocks until a message is available, ctx is done, or the queue
	// is closed and drained (ErrQueueClosed).
	Dequeue(ctx context.Context) (Message, error)
	Close() error
}

// MemoryQueue is a buffered channel. Messages still buffered at Close are
// handed out before Dequeue reports ErrQueueClosed.
type MemoryQueue struct {
	mu     sync.RWMutex
	ch     chan Message
	closed bool
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 100
	}
	return &MemoryQueue{ch: make(chan Message, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Message, error) {
	select {
	case msg, ok := <-q.ch:
		if !ok {
			return Message{}, ErrQueueClosed
		}
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	return nil
}
