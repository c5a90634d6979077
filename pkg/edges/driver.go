// Package edges provides the relationship store interface: edge lookup,
// neighbor listing for the query fast path, pair statistics for admission
// gating, and the merge upsert the enrichment worker writes through.
package edges

import (
	"context"

	"github.com/papercomputeco/adjacent/pkg/graph"
)

// Neighbor is an item adjacent to an anchor in the graph, carrying the best
// edge connecting the two.
type Neighbor struct {
	// CandidateID is the endpoint that is not the anchor.
	CandidateID string

	// Edge is the highest-confidence edge between anchor and candidate.
	Edge graph.Edge
}

// Store handles storage and retrieval of relationship edges.
type Store interface {
	// GetByID retrieves an edge by id. A missing edge is reported as
	// ErrNotFound.
	GetByID(ctx context.Context, id string) (*graph.Edge, error)

	// ListForAnchor returns up to limit neighbors of the anchor, best edge
	// per neighbor, ordered by confidence descending with recency as the
	// tiebreak. limit <= 0 means no limit.
	ListForAnchor(ctx context.Context, anchorID string, limit int) ([]Neighbor, error)

	// PairStats returns, for each candidate that shares at least one edge
	// with the anchor, the maximum anchor count and maximum confidence
	// across all edge types for that pair. Candidates with no edges are
	// absent from the result.
	PairStats(ctx context.Context, anchorID string, candidateIDs []string) (map[string]graph.PairStats, error)

	// Upsert writes an edge, merging with any existing edge of the same id:
	// anchors seen are unioned, confidence takes the maximum, and status is
	// never downgraded. Concurrent upserts of the same id lose nothing.
	Upsert(ctx context.Context, e graph.Edge) error

	// Close releases any resources held by the store.
	Close() error
}
