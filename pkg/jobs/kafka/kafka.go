// Package kafka provides a Kafka-backed job queue for multi-process
// deployments: API servers enqueue, worker processes consume through a
// consumer group.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/jobs"
)

// Config holds configuration for the Kafka job queue.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the enrichment job topic.
	Topic string

	// GroupID is the consumer group for workers. Required to consume.
	GroupID string
}

// Queue implements jobs.Queue on a Kafka topic.
//
// Delivery is at least once: Dequeue fetches without committing, and the
// offset is committed only when the worker calls Ack. A consumer that dies
// mid-job leaves the offset uncommitted, so the group redelivers the job
// after a rebalance. Kafka commits are per-partition high-water marks, so
// acknowledging a later job on the same partition also covers earlier
// unacknowledged ones; idempotent materialization makes the occasional
// redelivery or early cover harmless.
//
// Status is a process-local view: the broker cannot answer point lookups, so
// each process only knows the transitions it has itself observed or written.
// Cross-process status reads are eventually consistent at best.
type Queue struct {
	writer *kafkago.Writer
	reader *kafkago.Reader
	logger *zap.Logger

	mu       sync.RWMutex
	statuses map[string]jobs.Status
	pending  map[string]kafkago.Message
}

// NewQueue creates a Kafka-backed job queue.
func NewQueue(c Config, logger *zap.Logger) (*Queue, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if c.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(c.Brokers...),
		Topic:    c.Topic,
		Balancer: &kafkago.Hash{},
	}

	var reader *kafkago.Reader
	if c.GroupID != "" {
		reader = kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: c.Brokers,
			Topic:   c.Topic,
			GroupID: c.GroupID,
		})
	}

	logger.Info("kafka job queue initialized",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", c.Topic),
		zap.String("group_id", c.GroupID),
	)

	return &Queue{
		writer:   writer,
		reader:   reader,
		logger:   logger,
		statuses: make(map[string]jobs.Status),
		pending:  make(map[string]kafkago.Message),
	}, nil
}

// Enqueue publishes the job, keyed by anchor so a hot anchor's jobs land on
// one partition.
func (q *Queue) Enqueue(ctx context.Context, job jobs.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job %s: %w", job.ID, err)
	}

	err = q.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(job.AnchorID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publishing job %s: %w", job.ID, err)
	}

	q.setLocal(job.ID, jobs.StatusQueued)
	return nil
}

// Dequeue blocks until a job message arrives or the context is done. The
// message's offset stays uncommitted until Ack, so a worker crash before Ack
// leaves the job eligible for redelivery.
func (q *Queue) Dequeue(ctx context.Context) (jobs.Job, error) {
	if q.reader == nil {
		return jobs.Job{}, fmt.Errorf("queue has no consumer group configured")
	}

	for {
		msg, err := q.reader.FetchMessage(ctx)
		if err != nil {
			return jobs.Job{}, fmt.Errorf("fetching job message: %w", err)
		}

		var job jobs.Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			// A malformed message is unrecoverable; commit and skip it
			// rather than wedging the consumer on redeliveries.
			q.logger.Warn("dropping malformed job message",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			if err := q.reader.CommitMessages(ctx, msg); err != nil {
				q.logger.Warn("committing malformed job message failed",
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
			continue
		}

		q.mu.Lock()
		q.pending[job.ID] = msg
		q.mu.Unlock()

		return job, nil
	}
}

// Ack commits the offset of a previously dequeued job. Acking a job this
// process did not dequeue is a no-op: after a restart the redelivered copy
// carries its own offset.
func (q *Queue) Ack(ctx context.Context, job jobs.Job) error {
	q.mu.Lock()
	msg, ok := q.pending[job.ID]
	delete(q.pending, job.ID)
	q.mu.Unlock()

	if !ok {
		return nil
	}

	if err := q.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("committing job %s: %w", job.ID, err)
	}
	return nil
}

// Status reports the job's lifecycle state as seen by this process.
func (q *Queue) Status(_ context.Context, id string) (jobs.Status, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if s, ok := q.statuses[id]; ok {
		return s, nil
	}
	return jobs.StatusNotFound, nil
}

// SetStatus records a lifecycle transition in the local view.
func (q *Queue) SetStatus(_ context.Context, id string, status jobs.Status) error {
	q.setLocal(id, status)
	return nil
}

// Close closes the writer and, if present, the reader.
func (q *Queue) Close() error {
	werr := q.writer.Close()
	if q.reader != nil {
		if rerr := q.reader.Close(); rerr != nil {
			return rerr
		}
	}
	return werr
}

func (q *Queue) setLocal(id string, status jobs.Status) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.statuses[id] = status
}

var _ jobs.Queue = (*Queue)(nil)
