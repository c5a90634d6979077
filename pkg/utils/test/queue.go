package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/adjacent/pkg/jobs"
	jobsmem "github.com/papercomputeco/adjacent/pkg/jobs/inmemory"
)

// FlakyQueue wraps an in-memory job queue with ack recording and dequeue
// failure injection.
type FlakyQueue struct {
	*jobsmem.Queue

	mu          sync.Mutex
	acked       []string
	dequeueErrs []error
}

// NewFlakyQueue creates a flaky queue over a fresh in-memory queue.
func NewFlakyQueue(capacity int) *FlakyQueue {
	return &FlakyQueue{Queue: jobsmem.NewQueue(capacity)}
}

// FailNextDequeue queues an error to be returned by an upcoming Dequeue call
// before delegating resumes.
func (f *FlakyQueue) FailNextDequeue(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dequeueErrs = append(f.dequeueErrs, err)
}

func (f *FlakyQueue) Dequeue(ctx context.Context) (jobs.Job, error) {
	f.mu.Lock()
	if len(f.dequeueErrs) > 0 {
		err := f.dequeueErrs[0]
		f.dequeueErrs = f.dequeueErrs[1:]
		f.mu.Unlock()
		return jobs.Job{}, err
	}
	f.mu.Unlock()

	return f.Queue.Dequeue(ctx)
}

func (f *FlakyQueue) Ack(_ context.Context, job jobs.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, job.ID)
	return nil
}

// Acked returns the ids of acknowledged jobs, in order.
func (f *FlakyQueue) Acked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

var _ jobs.Queue = (*FlakyQueue)(nil)
