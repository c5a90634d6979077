// Package catalog provides the item store interface for the adjacent system:
// point lookup, nearest-neighbor similarity search, and the best-effort
// counters the query and enrichment paths maintain.
package catalog

import "time"

// Item is a catalog entry. The scalar/text attributes feed inference views
// and the optional embedding feeds similarity search.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Price       float64  `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`

	// Embedding is the item's vector representation, if one has been stored.
	Embedding []float32 `json:"embedding,omitempty"`

	// QueryCount counts queries anchored on this item. Increments are
	// best-effort and tolerate lost updates.
	QueryCount int64 `json:"query_count,omitempty"`

	// LastEnrichedAt and EnrichmentCount are worker bookkeeping recorded
	// after an enrichment job completes.
	LastEnrichedAt  *time.Time `json:"last_enriched_at,omitempty"`
	EnrichmentCount int64      `json:"enrichment_count,omitempty"`
}

// Text returns the free-text the embedder should encode for this item.
func (i Item) Text() string {
	if i.Description != "" {
		return i.Description
	}
	return i.Title
}

// SearchResult is a similarity search hit.
type SearchResult struct {
	// ID is the matched item's id.
	ID string `json:"id"`

	// Score is the similarity score (higher = more similar).
	Score float32 `json:"score"`
}
