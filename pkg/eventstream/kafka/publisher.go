// Package kafka provides a Kafka-backed eventstream publisher.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/eventstream"
)

// Config holds configuration for the Kafka event publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the edge event topic.
	Topic string
}

// Publisher publishes edge events to a Kafka topic, keyed by edge id so all
// events for one edge land on one partition.
type Publisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if c.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	return &Publisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(c.Brokers...),
			Topic:    c.Topic,
			Balancer: &kafkago.Hash{},
		},
		logger: logger,
	}, nil
}

// PublishEdge publishes the event.
func (p *Publisher) PublishEdge(ctx context.Context, event *eventstream.EdgeMaterializedEvent) error {
	if event == nil {
		return eventstream.ErrNilEdgeEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event %s: %w", event.EventID, err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.Edge.ID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publishing event %s: %w", event.EventID, err)
	}

	p.logger.Debug("edge event published",
		zap.String("event_id", event.EventID),
		zap.String("edge_id", event.Edge.ID),
		zap.String("action", string(event.Action)),
	)

	return nil
}

// Close closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
