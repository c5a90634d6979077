// Package configcmder provides the config command for managing the
// persistent adjacent configuration stored in config.toml.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent adjacent configuration.

Configuration is stored as config.toml and provides default values for
command flags. CLI flags always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen,
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  catalog.provider, catalog.sqlite_path, catalog.qdrant_host, catalog.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  inference.provider, inference.target, inference.api_key, inference.model,
  jobs.provider, jobs.topic, jobs.group_id,
  events.provider, events.topic,
  query.top_k_default, query.reinforcement_enabled,
  worker.num_workers

Use subcommands to get, set, or list configuration values:
  adjacent config set <key> <value>    Set a configuration value
  adjacent config get <key>            Get a configuration value
  adjacent config list                 List all configuration values

Examples:
  adjacent config set catalog.provider qdrant
  adjacent config set embedding.model nomic-embed-text
  adjacent config get inference.provider
  adjacent config list`

const configShortDesc string = "Manage persistent adjacent configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
