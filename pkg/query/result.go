// Package query implements the read fast path: graph neighbors first, vector
// similarity to fill, and a best-effort enrichment enqueue for pairs the
// reinforcement gate admits. The engine holds no inference handle, so a query
// can never block on model latency.
package query

import (
	"errors"

	"github.com/papercomputeco/adjacent/pkg/graph"
)

var (
	// ErrItemNotFound is returned when the anchor item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrCatalogUnavailable is returned when the catalog cannot serve the
	// anchor lookup. Terminal for the query.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// Source says which path produced a recommendation.
type Source string

const (
	SourceGraph  Source = "graph"
	SourceVector Source = "vector"
)

// EnrichmentStatus summarizes what the query did about enrichment.
type EnrichmentStatus string

const (
	// EnrichmentComplete means the graph alone served the query; nothing to
	// enrich.
	EnrichmentComplete EnrichmentStatus = "complete"

	// EnrichmentEnqueued means an enrichment job was submitted.
	EnrichmentEnqueued EnrichmentStatus = "enqueued"

	// EnrichmentSkipped means enrichment was wanted but not performed:
	// disabled, gated out, or the queue refused.
	EnrichmentSkipped EnrichmentStatus = "skipped"
)

// Recommendation is one related item in a query result.
type Recommendation struct {
	ItemID string `json:"item_id"`
	Source Source `json:"source"`

	// Type and Confidence are set for graph recommendations.
	Type       graph.EdgeType `json:"edge_type,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`

	// Score is the similarity score for vector recommendations.
	Score float32 `json:"score,omitempty"`
}

// Result is the outcome of one query.
type Result struct {
	AnchorID        string           `json:"anchor_id"`
	Recommendations []Recommendation `json:"recommendations"`

	FromGraph  int `json:"from_graph"`
	FromVector int `json:"from_vector"`

	EnrichmentStatus EnrichmentStatus `json:"enrichment_status"`

	// JobID identifies the enqueued enrichment job, if any.
	JobID string `json:"job_id,omitempty"`

	// TraceID correlates the query with any work it spawned.
	TraceID string `json:"trace_id"`
}
