// Package adjacentcmder
package adjacentcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/adjacent/cmd/adjacent/config"
	ingestcmder "github.com/papercomputeco/adjacent/cmd/adjacent/ingest"
	querycmder "github.com/papercomputeco/adjacent/cmd/adjacent/query"
	servecmder "github.com/papercomputeco/adjacent/cmd/adjacent/serve"
	versioncmder "github.com/papercomputeco/adjacent/cmd/adjacent/version"
	workcmder "github.com/papercomputeco/adjacent/cmd/adjacent/work"
)

const adjacentLongDesc string = `Adjacent is a self-reinforcing related-items graph for catalogs.

Run services using:
  adjacent serve       Run the API server and enrichment workers together
  adjacent work        Run just the enrichment workers

Work with data using:
  adjacent ingest      Load catalog items from a file
  adjacent query       Query related items for an anchor`

const adjacentShortDesc string = "Adjacent - related-items graph"

func NewAdjacentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adjacent",
		Short: adjacentShortDesc,
		Long:  adjacentLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to config.toml (default: ./config.toml)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(workcmder.NewWorkCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
