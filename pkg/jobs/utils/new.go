package jobsutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/jobs"
	"github.com/papercomputeco/adjacent/pkg/jobs/inmemory"
	"github.com/papercomputeco/adjacent/pkg/jobs/kafka"
)

type NewJobQueueOpts struct {
	ProviderType string

	// Capacity bounds the inmemory provider's buffer.
	Capacity int

	// Brokers, Topic and GroupID configure the kafka provider.
	Brokers []string
	Topic   string
	GroupID string

	Logger *zap.Logger
}

func NewJobQueue(o *NewJobQueueOpts) (jobs.Queue, error) {
	switch o.ProviderType {
	case "inmemory":
		return inmemory.NewQueue(o.Capacity), nil
	case "kafka":
		return kafka.NewQueue(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
			GroupID: o.GroupID,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported job queue provider: %s", o.ProviderType)
	}
}
