package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultConfigFile is the config file name looked up in the working
	// directory when no explicit path is given.
	DefaultConfigFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// Configer reads and writes the config.toml file at a fixed path.
type Configer struct {
	targetPath string
}

// NewConfiger returns a Configer bound to the given path. An empty path
// binds to config.toml in the working directory.
func NewConfiger(path string) *Configer {
	if path == "" {
		path = DefaultConfigFile
	}
	return &Configer{targetPath: path}
}

// ValidConfigKeys returns the list of all supported configuration key names
// in a stable, logical order matching the TOML section layout.
func ValidConfigKeys() []string {
	ordered := []string{
		"api.listen",
		"storage.provider",
		"storage.sqlite_path",
		"storage.postgres_dsn",
		"catalog.provider",
		"catalog.sqlite_path",
		"catalog.qdrant_host",
		"catalog.qdrant_port",
		"catalog.collection",
		"embedding.provider",
		"embedding.target",
		"embedding.model",
		"embedding.dimensions",
		"inference.provider",
		"inference.target",
		"inference.api_key",
		"inference.model",
		"jobs.provider",
		"jobs.topic",
		"jobs.group_id",
		"events.provider",
		"events.topic",
		"query.top_k_default",
		"query.reinforcement_enabled",
		"worker.num_workers",
	}

	// Sanity: only return keys that actually exist in the map, then append
	// any map keys the ordered list missed.
	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from the bound config.toml path.
// If the file does not exist, returns NewDefaultConfig() so callers always
// receive a fully-populated Config with sane defaults. Fields explicitly set
// in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	// Merge in defaults: fill in any zero-value fields from the loaded config
	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}

	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = defaults.Storage.Provider
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = defaults.Storage.SQLitePath
	}

	if cfg.Catalog.Provider == "" {
		cfg.Catalog.Provider = defaults.Catalog.Provider
	}
	if cfg.Catalog.SQLitePath == "" {
		cfg.Catalog.SQLitePath = defaults.Catalog.SQLitePath
	}
	if cfg.Catalog.QdrantPort == 0 {
		cfg.Catalog.QdrantPort = defaults.Catalog.QdrantPort
	}
	if cfg.Catalog.Collection == "" {
		cfg.Catalog.Collection = defaults.Catalog.Collection
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = defaults.Embedding.Provider
	}
	if cfg.Embedding.Target == "" {
		cfg.Embedding.Target = defaults.Embedding.Target
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaults.Embedding.Model
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = defaults.Embedding.Dimensions
	}

	if cfg.Inference.Provider == "" {
		cfg.Inference.Provider = defaults.Inference.Provider
	}
	if cfg.Inference.Model == "" {
		cfg.Inference.Model = defaults.Inference.Model
	}

	if cfg.Jobs.Provider == "" {
		cfg.Jobs.Provider = defaults.Jobs.Provider
	}
	if cfg.Jobs.Capacity == 0 {
		cfg.Jobs.Capacity = defaults.Jobs.Capacity
	}
	if cfg.Jobs.Topic == "" {
		cfg.Jobs.Topic = defaults.Jobs.Topic
	}
	if cfg.Jobs.GroupID == "" {
		cfg.Jobs.GroupID = defaults.Jobs.GroupID
	}

	if cfg.Events.Provider == "" {
		cfg.Events.Provider = defaults.Events.Provider
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = defaults.Events.Topic
	}

	if cfg.Query.TopKDefault == 0 {
		cfg.Query.TopKDefault = defaults.Query.TopKDefault
	}
	if cfg.Query.MaxTopK == 0 {
		cfg.Query.MaxTopK = defaults.Query.MaxTopK
	}
	if cfg.Query.ReinforcementThreshold == 0 {
		cfg.Query.ReinforcementThreshold = defaults.Query.ReinforcementThreshold
	}
	if cfg.Query.ReinforcementMaxConfidence == 0 {
		cfg.Query.ReinforcementMaxConfidence = defaults.Query.ReinforcementMaxConfidence
	}

	if cfg.Worker.NumWorkers == 0 {
		cfg.Worker.NumWorkers = defaults.Worker.NumWorkers
	}
	if cfg.Worker.JobTimeoutSeconds == 0 {
		cfg.Worker.JobTimeoutSeconds = defaults.Worker.JobTimeoutSeconds
	}

	if cfg.Graph.BaseConfidence == 0 {
		cfg.Graph.BaseConfidence = defaults.Graph.BaseConfidence
	}
	if cfg.Graph.GrowthRate == 0 {
		cfg.Graph.GrowthRate = defaults.Graph.GrowthRate
	}
	if cfg.Graph.ConfidenceCap == 0 {
		cfg.Graph.ConfidenceCap = defaults.Graph.ConfidenceCap
	}
	if cfg.Graph.ActiveThreshold == 0 {
		cfg.Graph.ActiveThreshold = defaults.Graph.ActiveThreshold
	}
}

// SaveConfig persists the configuration to the bound config.toml path.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
