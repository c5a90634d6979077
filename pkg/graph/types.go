// Package graph defines the relationship data model for the adjacent system:
// typed, confidence-scored edges between catalog items, the deterministic
// identity scheme for those edges, the materializer that folds inference
// proposals into edge state, and the reinforcement gate that decides when a
// pair is worth re-submitting for inference.
//
// Everything in this package is pure: no I/O, no clocks (callers pass time),
// no store access. Persistence and atomicity live in pkg/edges.
package graph

import "time"

// EdgeType is the semantic kind of a relationship. The set is closed;
// inference output naming any other type is rejected at the worker boundary.
type EdgeType string

const (
	EdgeTypeSimilarTo     EdgeType = "SIMILAR_TO"
	EdgeTypeComplements   EdgeType = "COMPLEMENTS"
	EdgeTypeSubstituteFor EdgeType = "SUBSTITUTE_FOR"
)

// EdgeTypes lists every valid edge type.
func EdgeTypes() []EdgeType {
	return []EdgeType{EdgeTypeSimilarTo, EdgeTypeComplements, EdgeTypeSubstituteFor}
}

// ValidEdgeType reports whether t is a member of the closed edge type set.
func ValidEdgeType(t EdgeType) bool {
	switch t {
	case EdgeTypeSimilarTo, EdgeTypeComplements, EdgeTypeSubstituteFor:
		return true
	}
	return false
}

// Status is the lifecycle state of an edge.
//
// PROPOSED edges have been seen by at least one anchor; ACTIVE edges have
// accumulated enough corroboration to cross the active threshold. DISPUTED is
// reserved for future decay/dispute handling and is never produced here.
type Status string

const (
	StatusProposed Status = "PROPOSED"
	StatusActive   Status = "ACTIVE"
	StatusDisputed Status = "DISPUTED"
)

// CreatedKind records whether an edge was first proposed between the anchor
// and a candidate, or between two candidates of the same inference call.
type CreatedKind string

const (
	CreatedAnchorCandidate    CreatedKind = "anchor_candidate"
	CreatedCandidateCandidate CreatedKind = "candidate_candidate"
)

// Edge is a typed, confidence-scored relationship between two items.
//
// Endpoints are stored in canonical order (FromID <= ToID after
// normalization), so an edge is direction-free: (A,B) and (B,A) are the same
// edge. Multiple edges may exist between the same pair, one per EdgeType.
type Edge struct {
	// ID is a pure function of (Type, canonical pair); see ComputeEdgeID.
	ID   string   `json:"edge_id"`
	Type EdgeType `json:"edge_type"`

	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`

	// Confidence is in [0,1] and never decreases over the edge's lifetime.
	Confidence float64 `json:"confidence"`

	// AnchorsSeen lists the distinct anchors that have independently caused
	// this edge to be proposed. Append-only, no duplicates.
	AnchorsSeen []string `json:"anchors_seen"`

	Status Status `json:"status"`

	CreatedAt        time.Time `json:"created_at"`
	LastReinforcedAt time.Time `json:"last_reinforced_at"`

	// Provenance, set at creation and immutable afterwards.
	CreatedUnderAnchorID string      `json:"created_under_anchor_id,omitempty"`
	CreatedInJobID       string      `json:"created_in_job_id,omitempty"`
	CreatedKind          CreatedKind `json:"created_kind,omitempty"`
}

// SeenBy reports whether anchorID already appears in AnchorsSeen.
func (e *Edge) SeenBy(anchorID string) bool {
	id := NormalizeID(anchorID)
	for _, a := range e.AnchorsSeen {
		if a == id {
			return true
		}
	}
	return false
}

// Touches reports whether itemID is one of the edge's endpoints.
func (e *Edge) Touches(itemID string) bool {
	id := NormalizeID(itemID)
	return e.FromID == id || e.ToID == id
}

// PairStats is the per-pair metadata the reinforcement gate operates on,
// aggregated by max across every edge type between the pair.
type PairStats struct {
	// MaxAnchorCount is the largest AnchorsSeen length across all edge types
	// between the pair.
	MaxAnchorCount int `json:"max_anchor_count"`

	// MaxConfidence is the highest confidence across all edge types between
	// the pair.
	MaxConfidence float64 `json:"max_confidence"`
}
