// Package stores builds the concrete drivers the CLI commands share, from a
// resolved configuration.
package stores

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	catalogutils "github.com/papercomputeco/adjacent/pkg/catalog/utils"
	"github.com/papercomputeco/adjacent/pkg/config"
	"github.com/papercomputeco/adjacent/pkg/edges"
	edgesutils "github.com/papercomputeco/adjacent/pkg/edges/utils"
	"github.com/papercomputeco/adjacent/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/adjacent/pkg/embeddings/utils"
	"github.com/papercomputeco/adjacent/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/adjacent/pkg/eventstream/utils"
	"github.com/papercomputeco/adjacent/pkg/graph"
	"github.com/papercomputeco/adjacent/pkg/inference"
	inferenceutils "github.com/papercomputeco/adjacent/pkg/inference/utils"
	"github.com/papercomputeco/adjacent/pkg/jobs"
	jobsutils "github.com/papercomputeco/adjacent/pkg/jobs/utils"
)

// NewCatalog builds the catalog store named by the config.
func NewCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (catalog.Store, error) {
	return catalogutils.NewCatalogStore(ctx, &catalogutils.NewCatalogStoreOpts{
		ProviderType: cfg.Catalog.Provider,
		DBPath:       cfg.Catalog.SQLitePath,
		Host:         cfg.Catalog.QdrantHost,
		Port:         cfg.Catalog.QdrantPort,
		APIKey:       cfg.Catalog.QdrantAPIKey,
		UseTLS:       cfg.Catalog.QdrantUseTLS,
		Collection:   cfg.Catalog.Collection,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       logger,
	})
}

// NewEdges builds the edge store named by the config.
func NewEdges(ctx context.Context, cfg *config.Config, logger *zap.Logger) (edges.Store, error) {
	return edgesutils.NewEdgeStore(ctx, &edgesutils.NewEdgeStoreOpts{
		ProviderType: cfg.Storage.Provider,
		DBPath:       cfg.Storage.SQLitePath,
		DSN:          cfg.Storage.PostgresDSN,
		Logger:       logger,
	})
}

// NewQueue builds the job queue named by the config.
func NewQueue(cfg *config.Config, logger *zap.Logger) (jobs.Queue, error) {
	return jobsutils.NewJobQueue(&jobsutils.NewJobQueueOpts{
		ProviderType: cfg.Jobs.Provider,
		Capacity:     cfg.Jobs.Capacity,
		Brokers:      cfg.Jobs.Brokers,
		Topic:        cfg.Jobs.Topic,
		GroupID:      cfg.Jobs.GroupID,
		Logger:       logger,
	})
}

// NewEmbedder builds the embedder named by the config.
func NewEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	return embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
	})
}

// NewInference builds the inference driver named by the config.
func NewInference(cfg *config.Config) (inference.Driver, error) {
	return inferenceutils.NewInferenceDriver(&inferenceutils.NewInferenceDriverOpts{
		ProviderType: cfg.Inference.Provider,
		TargetURL:    cfg.Inference.Target,
		APIKey:       cfg.Inference.APIKey,
		Model:        cfg.Inference.Model,
	})
}

// NewPublisher builds the edge event publisher named by the config.
func NewPublisher(cfg *config.Config, logger *zap.Logger) (eventstream.Publisher, error) {
	return eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
		Logger:       logger,
	})
}

// Gate builds the reinforcement gate from the config.
func Gate(cfg *config.Config) *graph.Gate {
	return graph.NewGate(graph.GateConfig{
		Enabled:       cfg.Query.ReinforcementEnabled,
		Threshold:     cfg.Query.ReinforcementThreshold,
		MaxConfidence: cfg.Query.ReinforcementMaxConfidence,
	})
}

// Constants builds the confidence curve constants from the config.
func Constants(cfg *config.Config) graph.Constants {
	return graph.Constants{
		BaseConfidence:  cfg.Graph.BaseConfidence,
		GrowthRate:      cfg.Graph.GrowthRate,
		ConfidenceCap:   cfg.Graph.ConfidenceCap,
		ActiveThreshold: cfg.Graph.ActiveThreshold,
	}
}

// JobTimeout converts the configured timeout seconds to a duration.
func JobTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Worker.JobTimeoutSeconds) * time.Second
}
