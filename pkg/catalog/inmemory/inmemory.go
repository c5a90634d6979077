// Package inmemory provides an in-memory catalog store for tests and local
// development. Similarity search is brute-force cosine over stored
// embeddings.
package inmemory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/papercomputeco/adjacent/pkg/catalog"
)

// Store is an in-memory catalog.Store.
type Store struct {
	mu    sync.RWMutex
	items map[string]catalog.Item
}

// NewStore creates an empty in-memory catalog store.
func NewStore() *Store {
	return &Store{items: make(map[string]catalog.Item)}
}

// Get retrieves an item by id.
func (s *Store) Get(_ context.Context, id string) (*catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}

	out := item
	return &out, nil
}

// GetMany retrieves the items that exist among ids, preserving order.
func (s *Store) GetMany(_ context.Context, ids []string) ([]catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}

	return out, nil
}

// Put stores an item, replacing any existing item with the same id.
func (s *Store) Put(_ context.Context, item catalog.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = item
	return nil
}

// SimilaritySearch returns up to k items nearest to the embedding by cosine
// similarity, excluding the given ids.
func (s *Store) SimilaritySearch(_ context.Context, embedding []float32, k int, exclude []string) ([]catalog.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []catalog.SearchResult
	for id, item := range s.items {
		if excluded[id] || len(item.Embedding) == 0 {
			continue
		}
		results = append(results, catalog.SearchResult{
			ID:    id,
			Score: cosine(embedding, item.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// IncrementQueryCount bumps the item's query counter.
func (s *Store) IncrementQueryCount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return catalog.ErrNotFound
	}

	item.QueryCount++
	s.items[id] = item
	return nil
}

// RecordEnrichment stamps the item's enrichment bookkeeping.
func (s *Store) RecordEnrichment(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return catalog.ErrNotFound
	}

	item.EnrichmentCount++
	item.LastEnrichedAt = &at
	s.items[id] = item
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

var _ catalog.Store = (*Store)(nil)
