package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEdgeType is returned when a proposal names a type outside the
	// closed edge type set.
	ErrUnknownEdgeType = errors.New("unknown edge type")

	// ErrSelfEdge is returned when a proposal links an item to itself.
	ErrSelfEdge = errors.New("proposal links item to itself")

	// ErrMissingEndpoint is returned when a proposal omits an endpoint id.
	ErrMissingEndpoint = errors.New("proposal missing endpoint id")
)

// Proposal is a single relationship proposed by the inference backend.
// It is untyped evidence: only the materializer turns it into edge state,
// and only after Validate accepts it.
type Proposal struct {
	Type   EdgeType `json:"edge_type"`
	FromID string   `json:"from_id"`
	ToID   string   `json:"to_id"`
}

// Validate checks the proposal against the closed schema. Inference output is
// validated at the worker boundary; anything that fails here is dropped and
// logged, never materialized.
func (p Proposal) Validate() error {
	if !ValidEdgeType(p.Type) {
		return fmt.Errorf("%w: %q", ErrUnknownEdgeType, p.Type)
	}

	from, to := NormalizeID(p.FromID), NormalizeID(p.ToID)
	if from == "" || to == "" {
		return ErrMissingEndpoint
	}
	if from == to {
		return fmt.Errorf("%w: %q", ErrSelfEdge, from)
	}

	return nil
}

// EdgeID returns the deterministic id the proposal materializes to.
func (p Proposal) EdgeID() string {
	return ComputeEdgeID(p.Type, p.FromID, p.ToID)
}
