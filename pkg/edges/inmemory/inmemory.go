// Package inmemory provides an in-memory edge store for tests and local
// development.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/papercomputeco/adjacent/pkg/edges"
	"github.com/papercomputeco/adjacent/pkg/graph"
)

// Store is an in-memory edges.Store.
type Store struct {
	mu   sync.RWMutex
	byID map[string]graph.Edge
}

// NewStore creates an empty in-memory edge store.
func NewStore() *Store {
	return &Store{byID: make(map[string]graph.Edge)}
}

// GetByID retrieves an edge by id.
func (s *Store) GetByID(_ context.Context, id string) (*graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return nil, edges.ErrNotFound
	}

	out := e
	return &out, nil
}

// ListForAnchor returns the anchor's neighbors, best edge per neighbor,
// confidence descending with recency as the tiebreak.
func (s *Store) ListForAnchor(_ context.Context, anchorID string, limit int) ([]edges.Neighbor, error) {
	anchor := graph.NormalizeID(anchorID)

	s.mu.RLock()
	best := make(map[string]graph.Edge)
	for _, e := range s.byID {
		if !e.Touches(anchor) {
			continue
		}
		other := e.FromID
		if other == anchor {
			other = e.ToID
		}
		if cur, ok := best[other]; !ok || better(e, cur) {
			best[other] = e
		}
	}
	s.mu.RUnlock()

	out := make([]edges.Neighbor, 0, len(best))
	for id, e := range best {
		out = append(out, edges.Neighbor{CandidateID: id, Edge: e})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Edge.Confidence != out[j].Edge.Confidence {
			return out[i].Edge.Confidence > out[j].Edge.Confidence
		}
		if !out[i].Edge.LastReinforcedAt.Equal(out[j].Edge.LastReinforcedAt) {
			return out[i].Edge.LastReinforcedAt.After(out[j].Edge.LastReinforcedAt)
		}
		return out[i].CandidateID < out[j].CandidateID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// PairStats aggregates per-candidate stats across all edge types.
func (s *Store) PairStats(_ context.Context, anchorID string, candidateIDs []string) (map[string]graph.PairStats, error) {
	anchor := graph.NormalizeID(anchorID)
	wanted := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		wanted[graph.NormalizeID(id)] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]graph.PairStats)
	for _, e := range s.byID {
		if !e.Touches(anchor) {
			continue
		}
		other := e.FromID
		if other == anchor {
			other = e.ToID
		}
		if !wanted[other] {
			continue
		}
		st := stats[other]
		if len(e.AnchorsSeen) > st.MaxAnchorCount {
			st.MaxAnchorCount = len(e.AnchorsSeen)
		}
		if e.Confidence > st.MaxConfidence {
			st.MaxConfidence = e.Confidence
		}
		stats[other] = st
	}

	return stats, nil
}

// Upsert writes an edge, merging with any existing edge of the same id.
func (s *Store) Upsert(_ context.Context, e graph.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byID[e.ID]; ok {
		e = edges.Merge(existing, e)
	}
	s.byID[e.ID] = e

	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func better(a, b graph.Edge) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.LastReinforcedAt.After(b.LastReinforcedAt)
}

var _ edges.Store = (*Store)(nil)
