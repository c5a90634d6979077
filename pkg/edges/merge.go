package edges

import "github.com/papercomputeco/adjacent/pkg/graph"

var statusRank = map[graph.Status]int{
	graph.StatusProposed: 0,
	graph.StatusActive:   1,
	graph.StatusDisputed: 2,
}

// Merge combines an existing stored edge with an incoming write of the same
// id. Anchors seen are unioned preserving first-seen order, confidence takes
// the maximum, status never moves backward, and creation provenance stays
// with the existing edge. Every backend's Upsert applies this inside its
// atomicity boundary.
func Merge(existing, incoming graph.Edge) graph.Edge {
	out := existing

	seen := make(map[string]bool, len(existing.AnchorsSeen))
	for _, a := range existing.AnchorsSeen {
		seen[a] = true
	}
	for _, a := range incoming.AnchorsSeen {
		if !seen[a] {
			out.AnchorsSeen = append(out.AnchorsSeen, a)
			seen[a] = true
		}
	}

	if incoming.Confidence > out.Confidence {
		out.Confidence = incoming.Confidence
	}
	if statusRank[incoming.Status] > statusRank[out.Status] {
		out.Status = incoming.Status
	}
	if incoming.LastReinforcedAt.After(out.LastReinforcedAt) {
		out.LastReinforcedAt = incoming.LastReinforcedAt
	}

	return out
}
