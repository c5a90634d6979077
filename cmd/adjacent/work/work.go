// Package workcmder provides the work command: a standalone enrichment worker
// pool draining the shared job queue.
package workcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/cmd/adjacent/stores"
	"github.com/papercomputeco/adjacent/pkg/config"
	"github.com/papercomputeco/adjacent/pkg/logger"
	"github.com/papercomputeco/adjacent/pkg/worker"
)

const workLongDesc string = `Run standalone enrichment workers.

Workers pull jobs off the job queue, run relationship inference over each
job's anchor and candidates, and materialize the proposed edges into the
graph. Use a kafka job queue to share work between the API process and one or
more worker processes.`

const workShortDesc string = "Run standalone enrichment workers"

var workFlags = config.FlagSet{
	config.FlagStorageProvider: {Name: "storage-provider", ViperKey: "storage.provider", Description: "Edge store provider (sqlite, postgres, inmemory)"},
	config.FlagSQLite:          {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the edge SQLite database"},
	config.FlagCatalogProvider: {Name: "catalog-provider", ViperKey: "catalog.provider", Description: "Catalog provider (sqlitevec, qdrant, inmemory)"},
	config.FlagJobsProvider:    {Name: "jobs-provider", ViperKey: "jobs.provider", Description: "Job queue provider (inmemory, kafka)"},
	config.FlagJobsTopic:       {Name: "jobs-topic", ViperKey: "jobs.topic", Description: "Kafka topic for enrichment jobs"},
	config.FlagJobsGroupID:     {Name: "jobs-group", ViperKey: "jobs.group_id", Description: "Kafka consumer group for the workers"},
	config.FlagNumWorkers:      {Name: "workers", Shorthand: "w", ViperKey: "worker.num_workers", Description: "Number of enrichment workers"},
}

var workFlagKeys = []string{
	config.FlagStorageProvider,
	config.FlagSQLite,
	config.FlagCatalogProvider,
	config.FlagJobsProvider,
	config.FlagJobsTopic,
	config.FlagJobsGroupID,
	config.FlagNumWorkers,
}

type WorkCommander struct {
	storageProvider string
	sqlitePath      string
	catalogProvider string
	jobsProvider    string
	jobsTopic       string
	jobsGroup       string
	numWorkers      uint
	debug           bool
	config          *config.Config
	logger          *zap.Logger
}

func NewWorkCmd() *cobra.Command {
	cmder := &WorkCommander{}

	cmd := &cobra.Command{
		Use:   "work",
		Short: workShortDesc,
		Long:  workLongDesc,
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
			config.BindRegisteredFlags(v, cmd, workFlags, workFlagKeys)
			cmder.config = config.FromViper(v)

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, workFlags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, workFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, workFlags, config.FlagCatalogProvider, &cmder.catalogProvider)
	config.AddStringFlag(cmd, workFlags, config.FlagJobsProvider, &cmder.jobsProvider)
	config.AddStringFlag(cmd, workFlags, config.FlagJobsTopic, &cmder.jobsTopic)
	config.AddStringFlag(cmd, workFlags, config.FlagJobsGroupID, &cmder.jobsGroup)
	config.AddUintFlag(cmd, workFlags, config.FlagNumWorkers, &cmder.numWorkers)

	return cmd
}

func (c *WorkCommander) run(ctx context.Context) error {
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

	queue, err := stores.NewQueue(cfg, c.logger)
	if err != nil {
		return fmt.Errorf("creating job queue: %w", err)
	}
	defer queue.Close()

	inferer, err := stores.NewInference(cfg)
	if err != nil {
		return fmt.Errorf("creating inference driver: %w", err)
	}
	defer inferer.Close()

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

	c.logger.Info("starting enrichment workers",
		zap.Uint("num_workers", cfg.Worker.NumWorkers),
		zap.String("jobs_provider", cfg.Jobs.Provider),
	)

	pool.Start(ctx)
	defer pool.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	return nil
}
