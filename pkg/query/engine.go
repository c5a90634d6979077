package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/edges"
	"github.com/papercomputeco/adjacent/pkg/embeddings"
	"github.com/papercomputeco/adjacent/pkg/graph"
	"github.com/papercomputeco/adjacent/pkg/jobs"
)

const (
	// DefaultTopK is the result size when the caller does not ask for one.
	DefaultTopK = 10

	// DefaultMaxTopK caps how many results a single query may request.
	DefaultMaxTopK = 50
)

// Config wires an Engine. Catalog and Edges are required; Queue and Embedder
// are optional and their absence degrades the corresponding step instead of
// failing construction.
type Config struct {
	Catalog catalog.Store
	Edges   edges.Store

	// Queue receives enrichment jobs. Nil disables enrichment.
	Queue jobs.Queue

	// Embedder produces on-demand embeddings for items stored without one.
	// Nil means such items get graph-only results.
	Embedder embeddings.Embedder

	// Gate decides which vector pairs are worth re-submitting for inference.
	// Nil uses the default gate.
	Gate *graph.Gate

	// DefaultTopK and MaxTopK default to the package constants when zero.
	DefaultTopK int
	MaxTopK     int

	Logger *zap.Logger
}

// Engine serves related-item queries.
type Engine struct {
	catalog  catalog.Store
	edges    edges.Store
	queue    jobs.Queue
	embedder embeddings.Embedder
	gate     *graph.Gate

	defaultTopK int
	maxTopK     int

	logger *zap.Logger
}

// NewEngine creates a query engine.
func NewEngine(c Config) (*Engine, error) {
	if c.Catalog == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if c.Edges == nil {
		return nil, fmt.Errorf("edge store is required")
	}

	gate := c.Gate
	if gate == nil {
		gate = graph.NewGate(graph.DefaultGateConfig())
	}
	defaultTopK := c.DefaultTopK
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	maxTopK := c.MaxTopK
	if maxTopK <= 0 {
		maxTopK = DefaultMaxTopK
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		catalog:     c.Catalog,
		edges:       c.Edges,
		queue:       c.Queue,
		embedder:    c.Embedder,
		gate:        gate,
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
		logger:      logger,
	}, nil
}

// Options control a single query.
type Options struct {
	// TopK is the requested result size, clamped to [1, MaxTopK]. Zero means
	// the engine default.
	TopK int

	// SkipEnrichment suppresses the enqueue step.
	SkipEnrichment bool

	// TraceID correlates the query with downstream work. Generated when
	// empty.
	TraceID string
}

// Query returns up to TopK items related to the anchor. Graph edges are
// served first; vector similarity fills the remainder. The call never waits
// on inference.
func (e *Engine) Query(ctx context.Context, anchorID string, opts Options) (*Result, error) {
	anchor := graph.NormalizeID(anchorID)
	topK := e.clampTopK(opts.TopK)

	traceID := opts.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}

	item, err := e.catalog.Get(ctx, anchor)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, anchor)
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	if err := e.catalog.IncrementQueryCount(ctx, anchor); err != nil {
		e.logger.Warn("query count increment failed",
			zap.String("anchor_id", anchor),
			zap.Error(err),
		)
	}

	result := &Result{
		AnchorID:         anchor,
		Recommendations:  make([]Recommendation, 0, topK),
		EnrichmentStatus: EnrichmentComplete,
		TraceID:          traceID,
	}

	// Graph fast path. An edge store failure degrades to vector-only rather
	// than failing the query.
	exclude := []string{anchor}
	neighbors, err := e.edges.ListForAnchor(ctx, anchor, topK)
	if err != nil {
		e.logger.Warn("edge listing failed, serving vector-only",
			zap.String("anchor_id", anchor),
			zap.Error(err),
		)
		neighbors = nil
	}
	for _, n := range neighbors {
		result.Recommendations = append(result.Recommendations, Recommendation{
			ItemID:     n.CandidateID,
			Source:     SourceGraph,
			Type:       n.Edge.Type,
			Confidence: n.Edge.Confidence,
		})
		exclude = append(exclude, n.CandidateID)
	}
	result.FromGraph = len(result.Recommendations)

	// Vector fill.
	var vectorIDs []string
	if remaining := topK - result.FromGraph; remaining > 0 {
		hits, err := e.vectorFill(ctx, *item, remaining, exclude)
		if err != nil {
			e.logger.Warn("similarity search failed",
				zap.String("anchor_id", anchor),
				zap.Error(err),
			)
		}
		for _, hit := range hits {
			result.Recommendations = append(result.Recommendations, Recommendation{
				ItemID: hit.ID,
				Source: SourceVector,
				Score:  hit.Score,
			})
			vectorIDs = append(vectorIDs, hit.ID)
		}
		result.FromVector = len(vectorIDs)
	}

	if len(vectorIDs) > 0 {
		result.EnrichmentStatus = e.enqueueEnrichment(ctx, anchor, vectorIDs, traceID, opts.SkipEnrichment, result)
	}

	return result, nil
}

func (e *Engine) clampTopK(topK int) int {
	if topK <= 0 {
		topK = e.defaultTopK
	}
	if topK > e.maxTopK {
		topK = e.maxTopK
	}
	return topK
}

// vectorFill finds similar items by the anchor's stored embedding, or by an
// on-demand embedding of its text when none is stored.
func (e *Engine) vectorFill(ctx context.Context, item catalog.Item, k int, exclude []string) ([]catalog.SearchResult, error) {
	embedding := item.Embedding
	if len(embedding) == 0 {
		if e.embedder == nil {
			return nil, nil
		}
		text := item.Text()
		if text == "" {
			return nil, nil
		}
		var err error
		embedding, err = e.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding anchor text: %w", err)
		}
	}

	return e.catalog.SimilaritySearch(ctx, embedding, k, exclude)
}

// enqueueEnrichment gates the vector candidates and submits one job for the
// admitted ones. Every failure path degrades to skipped; nothing here can
// fail the query.
func (e *Engine) enqueueEnrichment(ctx context.Context, anchor string, candidateIDs []string, traceID string, skip bool, result *Result) EnrichmentStatus {
	if skip || e.queue == nil {
		return EnrichmentSkipped
	}

	stats, err := e.edges.PairStats(ctx, anchor, candidateIDs)
	if err != nil {
		e.logger.Warn("pair stats lookup failed, skipping enrichment",
			zap.String("anchor_id", anchor),
			zap.Error(err),
		)
		return EnrichmentSkipped
	}

	admitted := make([]string, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		var pair *graph.PairStats
		if st, ok := stats[id]; ok {
			pair = &st
		}
		if e.gate.Admit(pair) {
			admitted = append(admitted, id)
		}
	}
	if len(admitted) == 0 {
		return EnrichmentSkipped
	}

	job := jobs.NewJob(anchor, admitted, traceID)
	if err := e.queue.Enqueue(ctx, job); err != nil {
		e.logger.Warn("enrichment enqueue failed",
			zap.String("anchor_id", anchor),
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return EnrichmentSkipped
	}

	result.JobID = job.ID
	e.logger.Debug("enrichment job enqueued",
		zap.String("anchor_id", anchor),
		zap.String("job_id", job.ID),
		zap.Int("candidates", len(admitted)),
	)

	return EnrichmentEnqueued
}
