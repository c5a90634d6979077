package eventstream

import "context"

// Publisher publishes edge events to an event stream backend.
type Publisher interface {
	PublishEdge(ctx context.Context, event *EdgeMaterializedEvent) error
	Close() error
}
