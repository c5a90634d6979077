package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeID canonicalizes an item id for identity purposes.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// CanonicalPair orders two item ids under the canonical total order
// (lexicographic over normalized ids), so (a,b) and (b,a) map to the same
// pair.
func CanonicalPair(a, b string) (string, string) {
	a, b = NormalizeID(a), NormalizeID(b)
	if a <= b {
		return a, b
	}
	return b, a
}

// ComputeEdgeID derives the deterministic edge id for an edge type and an
// endpoint pair. The pair is canonicalized first, so the id is independent of
// argument order. Distinct types over the same pair yield distinct ids.
func ComputeEdgeID(t EdgeType, a, b string) string {
	lo, hi := CanonicalPair(a, b)
	sum := sha256.Sum256([]byte(string(t) + ":" + lo + ":" + hi))
	return "edge_" + hex.EncodeToString(sum[:])[:16]
}
