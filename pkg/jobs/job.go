// Package jobs provides the enrichment job value object and the queue
// interface the query path enqueues into and the worker pool consumes from.
// Delivery is at-least-once with no ordering guarantee; consumers must be
// idempotent.
package jobs

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/adjacent/pkg/graph"
)

// Job asks the worker to run inference over an anchor and its candidates.
type Job struct {
	// ID uniquely identifies this enqueue. Redeliveries carry the same ID.
	ID string `json:"id"`

	// AnchorID is the item the job was triggered for.
	AnchorID string `json:"anchor_id"`

	// CandidateIDs are the items to relate to the anchor, ordered,
	// deduplicated, anchor excluded.
	CandidateIDs []string `json:"candidate_ids"`

	// TraceID correlates the job with the query that enqueued it. Optional.
	TraceID string `json:"trace_id,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewJob builds a job for an anchor and raw candidate list, normalizing ids,
// deduplicating, and dropping the anchor itself.
func NewJob(anchorID string, candidateIDs []string, traceID string) Job {
	anchor := graph.NormalizeID(anchorID)

	seen := make(map[string]bool, len(candidateIDs))
	candidates := make([]string, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		c := graph.NormalizeID(id)
		if c == "" || c == anchor || seen[c] {
			continue
		}
		seen[c] = true
		candidates = append(candidates, c)
	}

	return Job{
		ID:           uuid.NewString(),
		AnchorID:     anchor,
		CandidateIDs: candidates,
		TraceID:      traceID,
		EnqueuedAt:   time.Now().UTC(),
	}
}
