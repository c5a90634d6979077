package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if one exists at configPath or in the working directory), and binds
// environment variables with the ADJACENT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ADJACENT_API_LISTEN, ADJACENT_STORAGE_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file: explicit path wins, otherwise look in the cwd.
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults will apply. An explicit
		// path that does not exist is also tolerated for the same reason.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: ADJACENT_API_LISTEN, ADJACENT_JOBS_TOPIC, etc.
	v.SetEnvPrefix("ADJACENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the resolved viper state.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Catalog: CatalogConfig{
			Provider:     v.GetString("catalog.provider"),
			SQLitePath:   v.GetString("catalog.sqlite_path"),
			QdrantHost:   v.GetString("catalog.qdrant_host"),
			QdrantPort:   v.GetInt("catalog.qdrant_port"),
			QdrantAPIKey: v.GetString("catalog.qdrant_api_key"),
			QdrantUseTLS: v.GetBool("catalog.qdrant_use_tls"),
			Collection:   v.GetString("catalog.collection"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		Inference: InferenceConfig{
			Provider: v.GetString("inference.provider"),
			Target:   v.GetString("inference.target"),
			APIKey:   v.GetString("inference.api_key"),
			Model:    v.GetString("inference.model"),
		},
		Jobs: JobsConfig{
			Provider: v.GetString("jobs.provider"),
			Capacity: v.GetInt("jobs.capacity"),
			Brokers:  v.GetStringSlice("jobs.brokers"),
			Topic:    v.GetString("jobs.topic"),
			GroupID:  v.GetString("jobs.group_id"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetStringSlice("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
		Query: QueryConfig{
			TopKDefault:                v.GetInt("query.top_k_default"),
			MaxTopK:                    v.GetInt("query.max_top_k"),
			ReinforcementEnabled:       v.GetBool("query.reinforcement_enabled"),
			ReinforcementThreshold:     v.GetInt("query.reinforcement_threshold"),
			ReinforcementMaxConfidence: v.GetFloat64("query.reinforcement_max_confidence"),
		},
		Worker: WorkerConfig{
			NumWorkers:        v.GetUint("worker.num_workers"),
			JobTimeoutSeconds: v.GetUint("worker.job_timeout_seconds"),
		},
		Graph: GraphConfig{
			BaseConfidence:  v.GetFloat64("graph.base_confidence"),
			GrowthRate:      v.GetFloat64("graph.growth_rate"),
			ConfidenceCap:   v.GetFloat64("graph.confidence_cap"),
			ActiveThreshold: v.GetFloat64("graph.active_threshold"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Edge storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Catalog
	v.SetDefault("catalog.provider", d.Catalog.Provider)
	v.SetDefault("catalog.sqlite_path", d.Catalog.SQLitePath)
	v.SetDefault("catalog.qdrant_host", d.Catalog.QdrantHost)
	v.SetDefault("catalog.qdrant_port", d.Catalog.QdrantPort)
	v.SetDefault("catalog.qdrant_api_key", d.Catalog.QdrantAPIKey)
	v.SetDefault("catalog.qdrant_use_tls", d.Catalog.QdrantUseTLS)
	v.SetDefault("catalog.collection", d.Catalog.Collection)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Inference
	v.SetDefault("inference.provider", d.Inference.Provider)
	v.SetDefault("inference.target", d.Inference.Target)
	v.SetDefault("inference.api_key", d.Inference.APIKey)
	v.SetDefault("inference.model", d.Inference.Model)

	// Jobs
	v.SetDefault("jobs.provider", d.Jobs.Provider)
	v.SetDefault("jobs.capacity", d.Jobs.Capacity)
	v.SetDefault("jobs.brokers", d.Jobs.Brokers)
	v.SetDefault("jobs.topic", d.Jobs.Topic)
	v.SetDefault("jobs.group_id", d.Jobs.GroupID)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	// Query
	v.SetDefault("query.top_k_default", d.Query.TopKDefault)
	v.SetDefault("query.max_top_k", d.Query.MaxTopK)
	v.SetDefault("query.reinforcement_enabled", d.Query.ReinforcementEnabled)
	v.SetDefault("query.reinforcement_threshold", d.Query.ReinforcementThreshold)
	v.SetDefault("query.reinforcement_max_confidence", d.Query.ReinforcementMaxConfidence)

	// Worker
	v.SetDefault("worker.num_workers", d.Worker.NumWorkers)
	v.SetDefault("worker.job_timeout_seconds", d.Worker.JobTimeoutSeconds)

	// Confidence curve
	v.SetDefault("graph.base_confidence", d.Graph.BaseConfidence)
	v.SetDefault("graph.growth_rate", d.Graph.GrowthRate)
	v.SetDefault("graph.confidence_cap", d.Graph.ConfidenceCap)
	v.SetDefault("graph.active_threshold", d.Graph.ActiveThreshold)
}
