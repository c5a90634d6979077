// Package ingestcmder provides the ingest command for bulk-loading catalog
// items from a file.
package ingestcmder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/cmd/adjacent/stores"
	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/config"
	"github.com/papercomputeco/adjacent/pkg/graph"
	"github.com/papercomputeco/adjacent/pkg/logger"
)

const ingestLongDesc string = `Load catalog items from a newline-delimited JSON file.

Each line is one item object. Items without an embedding get one computed
from their text via the configured embedder. Existing items with the same id
are replaced.

Example line:
  {"id": "prod_123", "title": "Trail Shoe", "category": "footwear", "price": 89.0}`

const ingestShortDesc string = "Load catalog items from a file"

type IngestCommander struct {
	file   string
	debug  bool
	config *config.Config
	logger *zap.Logger
}

func NewIngestCmd() *cobra.Command {
	cmder := &IngestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configPath, _ := cmd.Flags().GetString("config")
			v, err := config.InitViper(configPath)
			if err != nil {
				return err
			}
			cmder.config = config.FromViper(v)

			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Path to the NDJSON items file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func (c *IngestCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	cat, err := stores.NewCatalog(ctx, c.config, c.logger)
	if err != nil {
		return fmt.Errorf("creating catalog store: %w", err)
	}
	defer cat.Close()

	embedder, err := stores.NewEmbedder(c.config)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	f, err := os.Open(c.file)
	if err != nil {
		return fmt.Errorf("opening items file: %w", err)
	}
	defer f.Close()

	var loaded, skipped int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for line := 1; scanner.Scan(); line++ {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var item catalog.Item
		if err := json.Unmarshal(raw, &item); err != nil {
			c.logger.Warn("skipping malformed line", zap.Int("line", line), zap.Error(err))
			skipped++
			continue
		}

		item.ID = graph.NormalizeID(item.ID)
		if item.ID == "" {
			c.logger.Warn("skipping item without id", zap.Int("line", line))
			skipped++
			continue
		}

		if len(item.Embedding) == 0 && item.Text() != "" {
			embedding, err := embedder.Embed(ctx, item.Text())
			if err != nil {
				c.logger.Warn("embedding failed, storing without one",
					zap.String("item_id", item.ID),
					zap.Error(err),
				)
			} else {
				item.Embedding = embedding
			}
		}

		if err := cat.Put(ctx, item); err != nil {
			return fmt.Errorf("storing item %s (line %d): %w", item.ID, line, err)
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading items file: %w", err)
	}

	fmt.Printf("Loaded %d items (%d skipped)\n", loaded, skipped)
	return nil
}
