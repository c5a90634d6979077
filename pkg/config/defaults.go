package config

import "github.com/papercomputeco/adjacent/pkg/graph"

const (
	defaultAPIListen = ":8080"

	defaultEdgeProvider   = "sqlite"
	defaultEdgeSQLitePath = "adjacent-edges.db"

	defaultCatalogProvider   = "sqlitevec"
	defaultCatalogSQLitePath = "adjacent-catalog.db"
	defaultQdrantPort        = 6334
	defaultCollection        = "items"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultInferenceProvider = "openai"
	defaultInferenceModel    = "gpt-4o-mini"

	defaultJobsProvider = "inmemory"
	defaultJobsCapacity = 256
	defaultJobsTopic    = "adjacent.enrichment.jobs"
	defaultJobsGroupID  = "adjacent-workers"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "adjacent.edge.events"

	defaultTopK    = 10
	defaultMaxTopK = 50

	defaultReinforcementThreshold     = 5
	defaultReinforcementMaxConfidence = 0.70

	defaultNumWorkers        = 3
	defaultJobTimeoutSeconds = 120
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Storage: StorageConfig{
			Provider:   defaultEdgeProvider,
			SQLitePath: defaultEdgeSQLitePath,
		},
		Catalog: CatalogConfig{
			Provider:   defaultCatalogProvider,
			SQLitePath: defaultCatalogSQLitePath,
			QdrantPort: defaultQdrantPort,
			Collection: defaultCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Inference: InferenceConfig{
			Provider: defaultInferenceProvider,
			Model:    defaultInferenceModel,
		},
		Jobs: JobsConfig{
			Provider: defaultJobsProvider,
			Capacity: defaultJobsCapacity,
			Topic:    defaultJobsTopic,
			GroupID:  defaultJobsGroupID,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		Query: QueryConfig{
			TopKDefault:                defaultTopK,
			MaxTopK:                    defaultMaxTopK,
			ReinforcementEnabled:       true,
			ReinforcementThreshold:     defaultReinforcementThreshold,
			ReinforcementMaxConfidence: defaultReinforcementMaxConfidence,
		},
		Worker: WorkerConfig{
			NumWorkers:        defaultNumWorkers,
			JobTimeoutSeconds: defaultJobTimeoutSeconds,
		},
		Graph: GraphConfig{
			BaseConfidence:  graph.DefaultBaseConfidence,
			GrowthRate:      graph.DefaultGrowthRate,
			ConfidenceCap:   graph.DefaultConfidenceCap,
			ActiveThreshold: graph.DefaultActiveThreshold,
		},
	}
}
