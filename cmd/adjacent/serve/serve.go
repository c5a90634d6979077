// Package servecmder provides the serve command: the API server and the
// enrichment worker pool running in one process against shared stores.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/api"
	"github.com/papercomputeco/adjacent/cmd/adjacent/stores"
	"github.com/papercomputeco/adjacent/pkg/config"
	"github.com/papercomputeco/adjacent/pkg/inference"
	"github.com/papercomputeco/adjacent/pkg/jobs"
	"github.com/papercomputeco/adjacent/pkg/logger"
	"github.com/papercomputeco/adjacent/pkg/query"
	"github.com/papercomputeco/adjacent/pkg/worker"
)

const serveLongDesc string = `Run the adjacent API server and enrichment workers together.

The API server answers related-item queries from the edge graph and vector
similarity; the workers drain the enrichment queue in the background. Both
share the same stores, so graph edges materialized by the workers are visible
to queries immediately.`

const serveShortDesc string = "Run the API server and enrichment workers"

var serveFlags = config.FlagSet{
	config.FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	config.FlagStorageProvider: {Name: "storage-provider", ViperKey: "storage.provider", Description: "Edge store provider (sqlite, postgres, inmemory)"},
	config.FlagSQLite:          {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the edge SQLite database"},
	config.FlagCatalogProvider: {Name: "catalog-provider", ViperKey: "catalog.provider", Description: "Catalog provider (sqlitevec, qdrant, inmemory)"},
	config.FlagCatalogSQLite:   {Name: "catalog-sqlite", ViperKey: "catalog.sqlite_path", Description: "Path to the catalog SQLite database"},
	config.FlagNumWorkers:      {Name: "workers", Shorthand: "w", ViperKey: "worker.num_workers", Description: "Number of enrichment workers"},
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagStorageProvider,
	config.FlagSQLite,
	config.FlagCatalogProvider,
	config.FlagCatalogSQLite,
	config.FlagNumWorkers,
}

type ServeCommander struct {
	listen          string
	storageProvider string
	sqlitePath      string
	catalogProvider string
	catalogSQLite   string
	numWorkers      uint
	debug           bool
	config          *config.Config
	logger          *zap.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
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
			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)
			cmder.config = config.FromViper(v)

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagCatalogProvider, &cmder.catalogProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagCatalogSQLite, &cmder.catalogSQLite)
	config.AddUintFlag(cmd, serveFlags, config.FlagNumWorkers, &cmder.numWorkers)

	return cmd
}

// enrichmentStack builds the inference driver and job queue backing the
// enrichment side. A missing inference backend is tolerated: the server then
// runs API-only and queries report skipped enrichment instead of failing at
// startup.
func enrichmentStack(cfg *config.Config, logger *zap.Logger) (inference.Driver, jobs.Queue, error) {
	inferer, err := stores.NewInference(cfg)
	if err != nil {
		logger.Warn("inference backend unavailable, enrichment disabled", zap.Error(err))
		return nil, nil, nil
	}

	queue, err := stores.NewQueue(cfg, logger)
	if err != nil {
		inferer.Close()
		return nil, nil, fmt.Errorf("creating job queue: %w", err)
	}

	return inferer, queue, nil
}

func (c *ServeCommander) run(ctx context.Context) error {
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

	inferer, queue, err := enrichmentStack(cfg, c.logger)
	if err != nil {
		return err
	}
	if inferer != nil {
		defer inferer.Close()
		defer queue.Close()
	}

	engine, err := query.NewEngine(query.Config{
		Catalog:     cat,
		Edges:       edgeStore,
		Queue:       queue,
		Embedder:    embedder,
		Gate:        stores.Gate(cfg),
		DefaultTopK: cfg.Query.TopKDefault,
		MaxTopK:     cfg.Query.MaxTopK,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating query engine: %w", err)
	}

	if inferer != nil {
		events, err := stores.NewPublisher(cfg, c.logger)
		if err != nil {
			return fmt.Errorf("creating event publisher: %w", err)
		}
		defer events.Close()

		pool, err := worker.NewPool(&worker.Config{
			Queue:      queue,
			Catalog:    cat,
			Edges:      edgeStore,
			Inference:  inferer,
			Events:     events,
			Constants:  stores.Constants(cfg),
			NumWorkers: cfg.Worker.NumWorkers,
			JobTimeout: stores.JobTimeout(cfg),
			Logger:     c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating worker pool: %w", err)
		}

		pool.Start(ctx)
		defer pool.Close()
	}

	server := api.NewServer(api.Config{ListenAddr: cfg.API.Listen}, engine, cat, edgeStore, embedder, queue, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
