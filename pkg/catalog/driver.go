package catalog

import (
	"context"
	"time"
)

// Store handles storage and retrieval of catalog items.
type Store interface {
	// Get retrieves an item by id. A missing item is reported as
	// ErrNotFound, never as a generic failure.
	Get(ctx context.Context, id string) (*Item, error)

	// GetMany retrieves the items that exist among ids; missing ids are
	// silently omitted from the result.
	GetMany(ctx context.Context, ids []string) ([]Item, error)

	// Put stores an item, replacing any existing item with the same id.
	Put(ctx context.Context, item Item) error

	// SimilaritySearch returns up to k items nearest to the embedding,
	// excluding the given ids, most similar first.
	SimilaritySearch(ctx context.Context, embedding []float32, k int, exclude []string) ([]SearchResult, error)

	// IncrementQueryCount bumps the item's query counter. Best-effort:
	// lost updates under race are acceptable.
	IncrementQueryCount(ctx context.Context, id string) error

	// RecordEnrichment stamps the item's enrichment bookkeeping. Best-effort.
	RecordEnrichment(ctx context.Context, id string, at time.Time) error

	// Close releases any resources held by the store.
	Close() error
}
