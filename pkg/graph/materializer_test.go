package graph_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/adjacent/pkg/graph"
)

var _ = Describe("Materialize", func() {
	var (
		constants graph.Constants
		now       time.Time
		proposal  graph.Proposal
	)

	BeforeEach(func() {
		constants = graph.DefaultConstants()
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		proposal = graph.Proposal{
			Type:   graph.EdgeTypeComplements,
			FromID: "item-b",
			ToID:   "item-c",
		}
	})

	Describe("creation", func() {
		It("creates a PROPOSED edge at base confidence", func() {
			edge, action := graph.Materialize(proposal, "item-a", "job-1", nil, now, constants)

			Expect(action).To(Equal(graph.ActionCreated))
			Expect(edge.ID).To(Equal(proposal.EdgeID()))
			Expect(edge.Confidence).To(BeNumerically("~", 0.55, 1e-9))
			Expect(edge.AnchorsSeen).To(Equal([]string{"item-a"}))
			Expect(edge.Status).To(Equal(graph.StatusProposed))
			Expect(edge.CreatedAt).To(Equal(now))
			Expect(edge.LastReinforcedAt).To(Equal(now))
		})

		It("stores endpoints in canonical order regardless of proposal order", func() {
			flipped := graph.Proposal{
				Type:   graph.EdgeTypeComplements,
				FromID: "item-c",
				ToID:   "item-b",
			}

			edge, _ := graph.Materialize(flipped, "item-a", "job-1", nil, now, constants)

			Expect(edge.FromID).To(Equal("item-b"))
			Expect(edge.ToID).To(Equal("item-c"))
			Expect(edge.ID).To(Equal(proposal.EdgeID()))
		})

		It("records provenance", func() {
			edge, _ := graph.Materialize(proposal, "item-a", "job-1", nil, now, constants)

			Expect(edge.CreatedUnderAnchorID).To(Equal("item-a"))
			Expect(edge.CreatedInJobID).To(Equal("job-1"))
			Expect(edge.CreatedKind).To(Equal(graph.CreatedCandidateCandidate))
		})

		It("marks edges touching the anchor as anchor_candidate", func() {
			anchored := graph.Proposal{
				Type:   graph.EdgeTypeComplements,
				FromID: "item-a",
				ToID:   "item-b",
			}

			edge, _ := graph.Materialize(anchored, "item-a", "job-1", nil, now, constants)

			Expect(edge.CreatedKind).To(Equal(graph.CreatedAnchorCandidate))
		})
	})

	Describe("reinforcement", func() {
		var existing graph.Edge

		BeforeEach(func() {
			existing, _ = graph.Materialize(proposal, "item-a", "job-1", nil, now, constants)
		})

		It("appends a new anchor and grows confidence", func() {
			later := now.Add(time.Hour)
			edge, action := graph.Materialize(proposal, "item-e", "job-2", &existing, later, constants)

			Expect(action).To(Equal(graph.ActionReinforced))
			Expect(edge.AnchorsSeen).To(Equal([]string{"item-a", "item-e"}))
			Expect(edge.Confidence).To(BeNumerically("~", 0.6325, 1e-4))
			Expect(edge.Status).To(Equal(graph.StatusProposed))
			Expect(edge.CreatedAt).To(Equal(now))
			Expect(edge.LastReinforcedAt).To(Equal(later))
		})

		It("flips to ACTIVE once the third distinct anchor corroborates", func() {
			second, _ := graph.Materialize(proposal, "item-e", "job-2", &existing, now, constants)
			third, action := graph.Materialize(proposal, "item-g", "job-3", &second, now, constants)

			Expect(action).To(Equal(graph.ActionReinforced))
			Expect(third.AnchorsSeen).To(HaveLen(3))
			Expect(third.Confidence).To(BeNumerically(">=", 0.70))
			Expect(third.Status).To(Equal(graph.StatusActive))
		})

		It("preserves provenance across reinforcement", func() {
			edge, _ := graph.Materialize(proposal, "item-e", "job-2", &existing, now, constants)

			Expect(edge.CreatedUnderAnchorID).To(Equal("item-a"))
			Expect(edge.CreatedInJobID).To(Equal("job-1"))
		})

		It("is idempotent for an anchor that was already seen", func() {
			reinforced, _ := graph.Materialize(proposal, "item-e", "job-2", &existing, now, constants)
			again, action := graph.Materialize(proposal, "item-e", "job-9", &reinforced, now.Add(time.Hour), constants)

			Expect(action).To(Equal(graph.ActionNoop))
			Expect(again).To(Equal(reinforced))
		})

		It("never lets confidence decrease and never exceeds the cap", func() {
			edge := existing
			prev := edge.Confidence

			for i := 0; i < 20; i++ {
				anchor := "anchor-" + string(rune('a'+i))
				edge, _ = graph.Materialize(proposal, anchor, "job-n", &edge, now, constants)

				Expect(edge.Confidence).To(BeNumerically(">=", prev))
				Expect(edge.Confidence).To(BeNumerically("<=", constants.ConfidenceCap))
				prev = edge.Confidence
			}

			Expect(edge.Confidence).To(BeNumerically("~", constants.ConfidenceCap, 1e-9))
		})

		It("never demotes an ACTIVE edge", func() {
			edge := existing
			for _, anchor := range []string{"e", "g", "h", "i"} {
				edge, _ = graph.Materialize(proposal, anchor, "job-n", &edge, now, constants)
			}
			Expect(edge.Status).To(Equal(graph.StatusActive))

			edge, action := graph.Materialize(proposal, "z", "job-n", &edge, now, constants)
			Expect(action).To(Equal(graph.ActionReinforced))
			Expect(edge.Status).To(Equal(graph.StatusActive))
		})
	})

	Describe("multi-type coexistence", func() {
		It("keeps independent state per edge type over the same pair", func() {
			other := graph.Proposal{
				Type:   graph.EdgeTypeSubstituteFor,
				FromID: "item-b",
				ToID:   "item-c",
			}

			first, _ := graph.Materialize(proposal, "item-a", "job-1", nil, now, constants)
			second, _ := graph.Materialize(other, "item-e", "job-2", nil, now, constants)

			Expect(first.ID).NotTo(Equal(second.ID))
			Expect(first.AnchorsSeen).To(Equal([]string{"item-a"}))
			Expect(second.AnchorsSeen).To(Equal([]string{"item-e"}))
		})
	})
})

var _ = Describe("ConfidenceForAnchors", func() {
	It("returns zero for a non-positive anchor count", func() {
		Expect(graph.ConfidenceForAnchors(0, graph.DefaultConstants())).To(BeZero())
		Expect(graph.ConfidenceForAnchors(-1, graph.DefaultConstants())).To(BeZero())
	})

	It("follows the compounding curve under default constants", func() {
		c := graph.DefaultConstants()

		Expect(graph.ConfidenceForAnchors(1, c)).To(BeNumerically("~", 0.55, 1e-9))
		Expect(graph.ConfidenceForAnchors(2, c)).To(BeNumerically("~", 0.6325, 1e-4))
		Expect(graph.ConfidenceForAnchors(3, c)).To(BeNumerically("~", 0.7274, 1e-9))
		Expect(graph.ConfidenceForAnchors(5, c)).To(Equal(0.95))
	})
})
