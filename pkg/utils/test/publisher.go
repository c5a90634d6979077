package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/adjacent/pkg/eventstream"
)

// RecordingPublisher is a test eventstream publisher that accumulates
// published events.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []eventstream.EdgeMaterializedEvent

	// Err causes PublishEdge to fail.
	Err error
}

// NewRecordingPublisher creates an empty recording publisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) PublishEdge(_ context.Context, event *eventstream.EdgeMaterializedEvent) error {
	if event == nil {
		return eventstream.ErrNilEdgeEvent
	}
	if p.Err != nil {
		return p.Err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

// Events returns a copy of everything published so far.
func (p *RecordingPublisher) Events() []eventstream.EdgeMaterializedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]eventstream.EdgeMaterializedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *RecordingPublisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*RecordingPublisher)(nil)
