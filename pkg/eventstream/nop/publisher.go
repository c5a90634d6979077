package nop

import (
	"context"

	"github.com/papercomputeco/adjacent/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishEdge validates input and otherwise does nothing.
func (p *Publisher) PublishEdge(_ context.Context, event *eventstream.EdgeMaterializedEvent) error {
	if event == nil {
		return eventstream.ErrNilEdgeEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
