// Package jobs carries calendar generation work from the HTTP layer to a
// pool of background workers. A work item is just a calendar ID; workers
// load everything else from the record store.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrClosed is returned by a queue after Close.
	ErrClosed = errors.New("queue closed")
	// ErrQueueFull is returned when a bounded queue cannot accept more work.
	ErrQueueFull = errors.New("queue full")
)

// Job is one unit of generation work.
type Job struct {
	CalendarID uint      `json:"calendarId"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// Queue is a FIFO of generation jobs.
type Queue interface {
	// Enqueue adds a job without waiting for a worker.
	Enqueue(ctx context.Context, j Job) error
	// Dequeue blocks until a job is available, ctx is done, or the queue
	// is closed.
	Dequeue(ctx context.Context) (Job, error)
	Close() error
}

// MemoryQueue is a bounded in-process queue. Jobs do not survive a restart.
type MemoryQueue struct {
	mu     sync.RWMutex
	ch     chan Job
	closed bool
}

// NewMemoryQueue returns a queue holding at most size pending jobs.
func NewMemoryQueue(size int) *MemoryQueue {
	if size < 1 {
		size = 1
	}
	return &MemoryQueue{ch: make(chan Job, size)}
}

// Enqueue implements Queue. It never blocks; a full buffer yields ErrQueueFull.
func (q *MemoryQueue) Enqueue(ctx context.Context, j Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue implements Queue.
func (q *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case j, ok := <-q.ch:
		if !ok {
			return Job{}, ErrClosed
		}
		return j, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Close stops accepting jobs. Pending jobs can still be dequeued.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	return nil
}
