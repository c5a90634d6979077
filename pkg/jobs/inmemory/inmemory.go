// Package inmemory provides a channel-backed job queue for single-process
// deployments, tests, and local development.
package inmemory

import (
	"context"
	"sync"

	"github.com/papercomputeco/adjacent/pkg/jobs"
)

// Queue is an in-process jobs.Queue backed by a buffered channel.
type Queue struct {
	ch chan jobs.Job

	mu       sync.RWMutex
	statuses map[string]jobs.Status
	closed   bool
}

// NewQueue creates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 256
	}
	return &Queue{
		ch:       make(chan jobs.Job, capacity),
		statuses: make(map[string]jobs.Status),
	}
}

// Enqueue submits a job without blocking; a full queue returns ErrQueueFull.
func (q *Queue) Enqueue(_ context.Context, job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return jobs.ErrClosed
	}

	select {
	case q.ch <- job:
		q.statuses[job.ID] = jobs.StatusQueued
		return nil
	default:
		return jobs.ErrQueueFull
	}
}

// Dequeue blocks until a job is available or the context is done.
func (q *Queue) Dequeue(ctx context.Context) (jobs.Job, error) {
	select {
	case job, ok := <-q.ch:
		if !ok {
			return jobs.Job{}, jobs.ErrClosed
		}
		return job, nil
	case <-ctx.Done():
		return jobs.Job{}, ctx.Err()
	}
}

// Status reports the job's lifecycle state.
func (q *Queue) Status(_ context.Context, id string) (jobs.Status, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if s, ok := q.statuses[id]; ok {
		return s, nil
	}
	return jobs.StatusNotFound, nil
}

// SetStatus records a lifecycle transition.
func (q *Queue) SetStatus(_ context.Context, id string, status jobs.Status) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.statuses[id] = status
	return nil
}

// Ack is a no-op: channel delivery hands each buffered job to exactly one
// consumer, so there is no redelivery to suppress.
func (q *Queue) Ack(_ context.Context, _ jobs.Job) error {
	return nil
}

// Len reports the number of jobs currently buffered.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops the queue. Jobs already buffered remain consumable.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	return nil
}

var _ jobs.Queue = (*Queue)(nil)
