// Package querycmder provides the query command for one-off related-item
// lookups against the configured stores.
package querycmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/cmd/adjacent/stores"
	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/config"
	"github.com/papercomputeco/adjacent/pkg/logger"
	"github.com/papercomputeco/adjacent/pkg/query"
	"github.com/papercomputeco/adjacent/pkg/utils"
)

const queryLongDesc string = `Query related items for an anchor.

Serves the query the same way the API server does: graph edges first, vector
similarity to fill. By default no enrichment job is enqueued, since a one-off
CLI process has no workers to drain the queue; pass --enrich when a separate
worker process is consuming a shared queue.`

const queryShortDesc string = "Query related items for an anchor"

type QueryCommander struct {
	topK   int
	enrich bool
	debug  bool
	config *config.Config
	logger *zap.Logger
}

func NewQueryCmd() *cobra.Command {
	cmder := &QueryCommander{}

	cmd := &cobra.Command{
		Use:   "query <item-id>",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			return cmder.run(cmd.Context(), args[0])
		},
	}

	cmd.Flags().IntVarP(&cmder.topK, "top-k", "k", 0, "Number of results (default: config query.top_k_default)")
	cmd.Flags().BoolVar(&cmder.enrich, "enrich", false, "Enqueue an enrichment job for uncovered pairs")

	return cmd
}

func (c *QueryCommander) run(ctx context.Context, anchorID string) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	cfg := c.config

	cat, err := stores.NewCatalog(ctx, cfg, c.logger)
	if err != nil {
		return fmt.Errorf("creating catalog store: %w", err)
	}
	defer cat.Close()

	edgeStore, err := stores.NewEdges(ctx, cfg, c.logger)
	if err != nil {
		return fmt.Errorf("creating edge store: %w", err)
	}
	defer edgeStore.Close()

	embedder, err := stores.NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	engineConfig := query.Config{
		Catalog:     cat,
		Edges:       edgeStore,
		Embedder:    embedder,
		Gate:        stores.Gate(cfg),
		DefaultTopK: cfg.Query.TopKDefault,
		MaxTopK:     cfg.Query.MaxTopK,
		Logger:      c.logger,
	}
	if c.enrich {
		queue, err := stores.NewQueue(cfg, c.logger)
		if err != nil {
			return fmt.Errorf("creating job queue: %w", err)
		}
		defer queue.Close()
		engineConfig.Queue = queue
	}

	engine, err := query.NewEngine(engineConfig)
	if err != nil {
		return fmt.Errorf("creating query engine: %w", err)
	}

	result, err := engine.Query(ctx, anchorID, query.Options{
		TopK:           c.topK,
		SkipEnrichment: !c.enrich,
	})
	if err != nil {
		return err
	}

	c.printResult(ctx, cat, result)
	return nil
}

func (c *QueryCommander) printResult(ctx context.Context, cat catalog.Store, result *query.Result) {
	ids := make([]string, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		ids = append(ids, rec.ItemID)
	}

	titles := make(map[string]string, len(ids))
	if items, err := cat.GetMany(ctx, ids); err == nil {
		for _, item := range items {
			titles[item.ID] = item.Title
		}
	}

	fmt.Printf("Related to %s (%d from graph, %d from vector, enrichment %s):\n\n",
		result.AnchorID, result.FromGraph, result.FromVector, result.EnrichmentStatus)

	for i, rec := range result.Recommendations {
		title := utils.Truncate(titles[rec.ItemID], 40)
		switch rec.Source {
		case query.SourceGraph:
			fmt.Printf("%2d. %-24s %-40s %s (confidence %.4f)\n", i+1, rec.ItemID, title, rec.Type, rec.Confidence)
		default:
			fmt.Printf("%2d. %-24s %-40s similarity %.4f\n", i+1, rec.ItemID, title, rec.Score)
		}
	}

	if result.JobID != "" {
		fmt.Printf("\nEnrichment job: %s (trace %s)\n", result.JobID, result.TraceID)
	}
}
