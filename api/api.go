package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/edges"
	"github.com/papercomputeco/adjacent/pkg/embeddings"
	"github.com/papercomputeco/adjacent/pkg/jobs"
	"github.com/papercomputeco/adjacent/pkg/query"
)

// Server is the API server for ingesting items and querying related ones.
type Server struct {
	config   Config
	engine   *query.Engine
	catalog  catalog.Store
	edges    edges.Store
	embedder embeddings.Embedder
	queue    jobs.Queue
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server. The stores and queue are injected so
// they can be shared with the worker pool in the same process.
func NewServer(config Config, engine *query.Engine, cat catalog.Store, edgeStore edges.Store, embedder embeddings.Embedder, queue jobs.Queue, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		engine:   engine,
		catalog:  cat,
		edges:    edgeStore,
		embedder: embedder,
		queue:    queue,
		logger:   logger,
		app:      app,
	}

	app.Get("/health", s.handleHealth)
	app.Get("/v1/query/:id", s.handleQuery)
	app.Put("/v1/items/:id", s.handlePutItem)
	app.Get("/v1/items/:id", s.handleGetItem)
	app.Get("/v1/items/:id/related", s.handleRelated)
	app.Get("/v1/jobs/:id", s.handleJobStatus)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
