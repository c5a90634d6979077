package jobs

import (
	"context"
	"errors"
)

// Status is the lifecycle state of a job as observed through the queue.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
	StatusNotFound Status = "not_found"
)

var (
	// ErrQueueFull is returned by Enqueue when the queue cannot accept more
	// jobs. Callers treat this as a skipped enrichment, never a failure.
	ErrQueueFull = errors.New("job queue full")

	// ErrClosed is returned when the queue has been closed.
	ErrClosed = errors.New("job queue closed")
)

// Queue hands jobs from the query path to the worker pool. Delivery is at
// least once: a dequeued job that is never acknowledged may be redelivered.
type Queue interface {
	// Enqueue submits a job. Non-blocking: a full queue returns
	// ErrQueueFull immediately.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available or the context is done.
	Dequeue(ctx context.Context) (Job, error)

	// Ack acknowledges that a dequeued job has been fully processed and
	// must not be redelivered. A worker that dies between Dequeue and Ack
	// leaves the job eligible for redelivery.
	Ack(ctx context.Context, job Job) error

	// Status reports the job's lifecycle state. Eventually consistent;
	// unknown ids report StatusNotFound.
	Status(ctx context.Context, id string) (Status, error)

	// SetStatus records a lifecycle transition. Called by the worker.
	SetStatus(ctx context.Context, id string, status Status) error

	// Close releases any resources held by the queue.
	Close() error
}
