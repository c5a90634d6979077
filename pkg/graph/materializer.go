package graph

import (
	"math"
	"time"
)

// Default confidence constants. Tunable via Constants; these values give
// 0.55 at creation, 0.6325 after a second distinct anchor, and cross the
// active threshold at the third.
const (
	DefaultBaseConfidence  = 0.55
	DefaultGrowthRate      = 0.15
	DefaultConfidenceCap   = 0.95
	DefaultActiveThreshold = 0.70
)

// Constants holds the tunable parameters of the confidence curve.
type Constants struct {
	// BaseConfidence is assigned when an edge is first created.
	BaseConfidence float64

	// GrowthRate compounds confidence per additional distinct anchor.
	GrowthRate float64

	// ConfidenceCap is the ceiling confidence can never exceed.
	ConfidenceCap float64

	// ActiveThreshold is the confidence at which an edge flips to ACTIVE.
	ActiveThreshold float64
}

// DefaultConstants returns the standard confidence curve parameters.
func DefaultConstants() Constants {
	return Constants{
		BaseConfidence:  DefaultBaseConfidence,
		GrowthRate:      DefaultGrowthRate,
		ConfidenceCap:   DefaultConfidenceCap,
		ActiveThreshold: DefaultActiveThreshold,
	}
}

// ConfidenceForAnchors computes edge confidence for n distinct anchors:
// base confidence compounded by the growth rate for each anchor beyond the
// first, capped.
func ConfidenceForAnchors(n int, c Constants) float64 {
	if n <= 0 {
		return 0
	}

	v := c.BaseConfidence * math.Pow(1+c.GrowthRate, float64(n-1))
	if v > c.ConfidenceCap {
		v = c.ConfidenceCap
	}

	// Round to 4 decimals so stored confidence is stable across platforms.
	return math.Round(v*10000) / 10000
}

// Action describes what Materialize did with a proposal.
type Action string

const (
	ActionCreated    Action = "created"
	ActionReinforced Action = "reinforced"
	ActionNoop       Action = "noop"
)

// Materialize folds one validated proposal, observed under anchorID, into
// the next edge state.
//
//   - existing == nil: a new edge at base confidence, PROPOSED, with
//     provenance recorded.
//   - existing edge not yet seen by this anchor: the anchor is appended,
//     confidence grows, and the edge flips ACTIVE once it crosses the
//     threshold. Provenance is preserved.
//   - existing edge already seen by this anchor: returned unchanged.
//
// Materialize is pure. The caller owns the read-materialize-write cycle;
// the edge store's Upsert is the atomicity boundary that makes concurrent
// materialization of the same id safe.
func Materialize(p Proposal, anchorID, jobID string, existing *Edge, now time.Time, c Constants) (Edge, Action) {
	anchor := NormalizeID(anchorID)
	lo, hi := CanonicalPair(p.FromID, p.ToID)

	if existing == nil {
		kind := CreatedCandidateCandidate
		if lo == anchor || hi == anchor {
			kind = CreatedAnchorCandidate
		}

		return Edge{
			ID:                   ComputeEdgeID(p.Type, lo, hi),
			Type:                 p.Type,
			FromID:               lo,
			ToID:                 hi,
			Confidence:           ConfidenceForAnchors(1, c),
			AnchorsSeen:          []string{anchor},
			Status:               statusFor(ConfidenceForAnchors(1, c), StatusProposed, c),
			CreatedAt:            now,
			LastReinforcedAt:     now,
			CreatedUnderAnchorID: anchor,
			CreatedInJobID:       jobID,
			CreatedKind:          kind,
		}, ActionCreated
	}

	if existing.SeenBy(anchor) {
		return *existing, ActionNoop
	}

	next := *existing
	next.AnchorsSeen = append(append([]string(nil), existing.AnchorsSeen...), anchor)
	next.Confidence = ConfidenceForAnchors(len(next.AnchorsSeen), c)
	next.Status = statusFor(next.Confidence, existing.Status, c)
	next.LastReinforcedAt = now

	return next, ActionReinforced
}

// statusFor promotes to ACTIVE at the threshold and never demotes.
func statusFor(confidence float64, current Status, c Constants) Status {
	if current == StatusActive || confidence >= c.ActiveThreshold {
		return StatusActive
	}
	return current
}
