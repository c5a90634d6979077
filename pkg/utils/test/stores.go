package testutils

import (
	"context"
	"time"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	catalogmem "github.com/papercomputeco/adjacent/pkg/catalog/inmemory"
	"github.com/papercomputeco/adjacent/pkg/edges"
	edgesmem "github.com/papercomputeco/adjacent/pkg/edges/inmemory"
	"github.com/papercomputeco/adjacent/pkg/graph"
)

// FlakyCatalog wraps an in-memory catalog store with per-method failure
// injection.
type FlakyCatalog struct {
	*catalogmem.Store

	FailGet       error
	FailSearch    error
	FailIncrement error
}

// NewFlakyCatalog creates a flaky catalog over a fresh in-memory store.
func NewFlakyCatalog() *FlakyCatalog {
	return &FlakyCatalog{Store: catalogmem.NewStore()}
}

func (f *FlakyCatalog) Get(ctx context.Context, id string) (*catalog.Item, error) {
	if f.FailGet != nil {
		return nil, f.FailGet
	}
	return f.Store.Get(ctx, id)
}

func (f *FlakyCatalog) SimilaritySearch(ctx context.Context, embedding []float32, k int, exclude []string) ([]catalog.SearchResult, error) {
	if f.FailSearch != nil {
		return nil, f.FailSearch
	}
	return f.Store.SimilaritySearch(ctx, embedding, k, exclude)
}

func (f *FlakyCatalog) IncrementQueryCount(ctx context.Context, id string) error {
	if f.FailIncrement != nil {
		return f.FailIncrement
	}
	return f.Store.IncrementQueryCount(ctx, id)
}

// RecordEnrichment delegates to the inner store.
func (f *FlakyCatalog) RecordEnrichment(ctx context.Context, id string, at time.Time) error {
	return f.Store.RecordEnrichment(ctx, id, at)
}

var _ catalog.Store = (*FlakyCatalog)(nil)

// FlakyEdges wraps an in-memory edge store with per-method failure injection.
type FlakyEdges struct {
	*edgesmem.Store

	FailList      error
	FailPairStats error
	FailUpsert    error

	// FailUpsertTimes fails the first N upserts, then lets them through.
	FailUpsertTimes int

	upserts int
}

// NewFlakyEdges creates a flaky edge store over a fresh in-memory store.
func NewFlakyEdges() *FlakyEdges {
	return &FlakyEdges{Store: edgesmem.NewStore()}
}

func (f *FlakyEdges) ListForAnchor(ctx context.Context, anchorID string, limit int) ([]edges.Neighbor, error) {
	if f.FailList != nil {
		return nil, f.FailList
	}
	return f.Store.ListForAnchor(ctx, anchorID, limit)
}

func (f *FlakyEdges) PairStats(ctx context.Context, anchorID string, candidateIDs []string) (map[string]graph.PairStats, error) {
	if f.FailPairStats != nil {
		return nil, f.FailPairStats
	}
	return f.Store.PairStats(ctx, anchorID, candidateIDs)
}

func (f *FlakyEdges) Upsert(ctx context.Context, e graph.Edge) error {
	f.upserts++
	if f.FailUpsert != nil && (f.FailUpsertTimes == 0 || f.upserts <= f.FailUpsertTimes) {
		return f.FailUpsert
	}
	return f.Store.Upsert(ctx, e)
}

var _ edges.Store = (*FlakyEdges)(nil)
