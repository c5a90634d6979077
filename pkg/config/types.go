package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent adjacent configuration stored as
// config.toml. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Inference InferenceConfig `toml:"inference"`
	Jobs      JobsConfig      `toml:"jobs"`
	Events    EventsConfig    `toml:"events"`
	Query     QueryConfig     `toml:"query"`
	Worker    WorkerConfig    `toml:"worker"`
	Graph     GraphConfig     `toml:"graph"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig holds edge store settings.
type StorageConfig struct {
	// Provider is sqlite, postgres, or inmemory.
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// CatalogConfig holds item store settings.
type CatalogConfig struct {
	// Provider is sqlitevec, qdrant, or inmemory.
	Provider   string `toml:"provider,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`

	QdrantHost   string `toml:"qdrant_host,omitempty"`
	QdrantPort   int    `toml:"qdrant_port,omitempty"`
	QdrantAPIKey string `toml:"qdrant_api_key,omitempty"`
	QdrantUseTLS bool   `toml:"qdrant_use_tls,omitempty"`
	Collection   string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// InferenceConfig holds inference driver settings.
type InferenceConfig struct {
	// Provider is openai or ollama.
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// JobsConfig holds job queue settings.
type JobsConfig struct {
	// Provider is inmemory or kafka.
	Provider string   `toml:"provider,omitempty"`
	Capacity int      `toml:"capacity,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
	GroupID  string   `toml:"group_id,omitempty"`
}

// EventsConfig holds eventstream publisher settings.
type EventsConfig struct {
	// Provider is nop or kafka.
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// QueryConfig holds query engine settings.
type QueryConfig struct {
	TopKDefault int `toml:"top_k_default,omitempty"`
	MaxTopK     int `toml:"max_top_k,omitempty"`

	ReinforcementEnabled       bool    `toml:"reinforcement_enabled"`
	ReinforcementThreshold     int     `toml:"reinforcement_threshold,omitempty"`
	ReinforcementMaxConfidence float64 `toml:"reinforcement_max_confidence,omitempty"`
}

// WorkerConfig holds enrichment worker settings.
type WorkerConfig struct {
	NumWorkers        uint `toml:"num_workers,omitempty"`
	JobTimeoutSeconds uint `toml:"job_timeout_seconds,omitempty"`
}

// GraphConfig holds the confidence curve constants.
type GraphConfig struct {
	BaseConfidence  float64 `toml:"base_confidence,omitempty"`
	GrowthRate      float64 `toml:"growth_rate,omitempty"`
	ConfidenceCap   float64 `toml:"confidence_cap,omitempty"`
	ActiveThreshold float64 `toml:"active_threshold,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"catalog.provider": {
		get: func(c *Config) string { return c.Catalog.Provider },
		set: func(c *Config, v string) error { c.Catalog.Provider = v; return nil },
	},
	"catalog.sqlite_path": {
		get: func(c *Config) string { return c.Catalog.SQLitePath },
		set: func(c *Config, v string) error { c.Catalog.SQLitePath = v; return nil },
	},
	"catalog.qdrant_host": {
		get: func(c *Config) string { return c.Catalog.QdrantHost },
		set: func(c *Config, v string) error { c.Catalog.QdrantHost = v; return nil },
	},
	"catalog.qdrant_port": {
		get: func(c *Config) string {
			if c.Catalog.QdrantPort == 0 {
				return ""
			}
			return strconv.Itoa(c.Catalog.QdrantPort)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for catalog.qdrant_port: %w", err)
			}
			c.Catalog.QdrantPort = n
			return nil
		},
	},
	"catalog.collection": {
		get: func(c *Config) string { return c.Catalog.Collection },
		set: func(c *Config, v string) error { c.Catalog.Collection = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"inference.provider": {
		get: func(c *Config) string { return c.Inference.Provider },
		set: func(c *Config, v string) error { c.Inference.Provider = v; return nil },
	},
	"inference.target": {
		get: func(c *Config) string { return c.Inference.Target },
		set: func(c *Config, v string) error { c.Inference.Target = v; return nil },
	},
	"inference.api_key": {
		get: func(c *Config) string { return c.Inference.APIKey },
		set: func(c *Config, v string) error { c.Inference.APIKey = v; return nil },
	},
	"inference.model": {
		get: func(c *Config) string { return c.Inference.Model },
		set: func(c *Config, v string) error { c.Inference.Model = v; return nil },
	},
	"jobs.provider": {
		get: func(c *Config) string { return c.Jobs.Provider },
		set: func(c *Config, v string) error { c.Jobs.Provider = v; return nil },
	},
	"jobs.topic": {
		get: func(c *Config) string { return c.Jobs.Topic },
		set: func(c *Config, v string) error { c.Jobs.Topic = v; return nil },
	},
	"jobs.group_id": {
		get: func(c *Config) string { return c.Jobs.GroupID },
		set: func(c *Config, v string) error { c.Jobs.GroupID = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"query.top_k_default": {
		get: func(c *Config) string {
			if c.Query.TopKDefault == 0 {
				return ""
			}
			return strconv.Itoa(c.Query.TopKDefault)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for query.top_k_default: %w", err)
			}
			c.Query.TopKDefault = n
			return nil
		},
	},
	"query.reinforcement_enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Query.ReinforcementEnabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for query.reinforcement_enabled: %w", err)
			}
			c.Query.ReinforcementEnabled = b
			return nil
		},
	},
	"worker.num_workers": {
		get: func(c *Config) string {
			if c.Worker.NumWorkers == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Worker.NumWorkers), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for worker.num_workers: %w", err)
			}
			c.Worker.NumWorkers = uint(n)
			return nil
		},
	},
}
