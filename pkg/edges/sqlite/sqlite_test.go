package sqlite_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/edges"
	"github.com/papercomputeco/adjacent/pkg/edges/sqlite"
	"github.com/papercomputeco/adjacent/pkg/graph"
)

func edgeBetween(t graph.EdgeType, a, b string, confidence float64, anchors ...string) graph.Edge {
	lo, hi := graph.CanonicalPair(a, b)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return graph.Edge{
		ID:               graph.ComputeEdgeID(t, a, b),
		Type:             t,
		FromID:           lo,
		ToID:             hi,
		Confidence:       confidence,
		AnchorsSeen:      anchors,
		Status:           graph.StatusProposed,
		CreatedAt:        now,
		LastReinforcedAt: now,
	}
}

var _ = Describe("Store", func() {
	var (
		store *sqlite.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		store, err = sqlite.NewStore(":memory:", zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Describe("NewStore", func() {
		It("should return an error when the path is empty", func() {
			_, err := sqlite.NewStore("", zap.NewNop())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetByID", func() {
		It("should return ErrNotFound for a missing edge", func() {
			_, err := store.GetByID(ctx, "edge_missing")
			Expect(err).To(MatchError(edges.ErrNotFound))
		})

		It("should round-trip a stored edge", func() {
			e := edgeBetween(graph.EdgeTypeSimilarTo, "prod_a", "prod_b", 0.55, "prod_a")
			e.CreatedUnderAnchorID = "prod_a"
			e.CreatedInJobID = "job-1"
			e.CreatedKind = graph.CreatedAnchorCandidate
			Expect(store.Upsert(ctx, e)).To(Succeed())

			got, err := store.GetByID(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Type).To(Equal(graph.EdgeTypeSimilarTo))
			Expect(got.FromID).To(Equal("prod_a"))
			Expect(got.ToID).To(Equal("prod_b"))
			Expect(got.Confidence).To(BeNumerically("~", 0.55, 1e-9))
			Expect(got.AnchorsSeen).To(Equal([]string{"prod_a"}))
			Expect(got.Status).To(Equal(graph.StatusProposed))
			Expect(got.CreatedUnderAnchorID).To(Equal("prod_a"))
			Expect(got.CreatedInJobID).To(Equal("job-1"))
			Expect(got.CreatedKind).To(Equal(graph.CreatedAnchorCandidate))
		})
	})

	Describe("Upsert", func() {
		It("should merge anchors and take the max confidence on conflict", func() {
			first := edgeBetween(graph.EdgeTypeSimilarTo, "prod_a", "prod_b", 0.55, "prod_a")
			Expect(store.Upsert(ctx, first)).To(Succeed())

			second := edgeBetween(graph.EdgeTypeSimilarTo, "prod_b", "prod_a", 0.6325, "prod_b")
			second.Status = graph.StatusProposed
			Expect(store.Upsert(ctx, second)).To(Succeed())

			got, err := store.GetByID(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AnchorsSeen).To(Equal([]string{"prod_a", "prod_b"}))
			Expect(got.Confidence).To(BeNumerically("~", 0.6325, 1e-9))
		})

		It("should never downgrade status or confidence", func() {
			active := edgeBetween(graph.EdgeTypeComplements, "prod_a", "prod_b", 0.8, "prod_a", "prod_b", "prod_c")
			active.Status = graph.StatusActive
			Expect(store.Upsert(ctx, active)).To(Succeed())

			stale := edgeBetween(graph.EdgeTypeComplements, "prod_a", "prod_b", 0.55, "prod_a")
			Expect(store.Upsert(ctx, stale)).To(Succeed())

			got, err := store.GetByID(ctx, active.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(graph.StatusActive))
			Expect(got.Confidence).To(BeNumerically("~", 0.8, 1e-9))
			Expect(got.AnchorsSeen).To(HaveLen(3))
		})

		It("should keep creation provenance from the first write", func() {
			first := edgeBetween(graph.EdgeTypeSimilarTo, "prod_a", "prod_b", 0.55, "prod_a")
			first.CreatedUnderAnchorID = "prod_a"
			first.CreatedInJobID = "job-1"
			Expect(store.Upsert(ctx, first)).To(Succeed())

			second := edgeBetween(graph.EdgeTypeSimilarTo, "prod_a", "prod_b", 0.6, "prod_b")
			second.CreatedUnderAnchorID = "prod_b"
			second.CreatedInJobID = "job-2"
			Expect(store.Upsert(ctx, second)).To(Succeed())

			got, err := store.GetByID(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.CreatedUnderAnchorID).To(Equal("prod_a"))
			Expect(got.CreatedInJobID).To(Equal("job-1"))
		})
	})

	Describe("ListForAnchor", func() {
		BeforeEach(func() {
			Expect(store.Upsert(ctx, edgeBetween(graph.EdgeTypeSimilarTo, "prod_a", "prod_b", 0.9, "prod_a"))).To(Succeed())
			Expect(store.Upsert(ctx, edgeBetween(graph.EdgeTypeComplements, "prod_a", "prod_b", 0.6, "prod_a"))).To(Succeed())
			Expect(store.Upsert(ctx, edgeBetween(graph.EdgeTypeSimilarTo, "prod_a", "prod_c", 0.7, "prod_a"))).To(Succeed())
			Expect(store.Upsert(ctx, edgeBetween(graph.EdgeTypeSimilarTo, "prod_b", "prod_c", 0.95, "prod_b"))).To(Succeed())
		})

		It("should return the best edge per neighbor, confidence descending", func() {
			neighbors, err := store.ListForAnchor(ctx, "prod_a", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(neighbors).To(HaveLen(2))
			Expect(neighbors[0].CandidateID).To(Equal("prod_b"))
			Expect(neighbors[0].Edge.Confidence).To(BeNumerically("~", 0.9, 1e-9))
			Expect(neighbors[0].Edge.Type).To(Equal(graph.EdgeTypeSimilarTo))
			Expect(neighbors[1].CandidateID).To(Equal("prod_c"))
		})

		It("should respect the limit", func() {
			neighbors, err := store.ListForAnchor(ctx, "prod_a", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(neighbors).To(HaveLen(1))
			Expect(neighbors[0].CandidateID).To(Equal("prod_b"))
		})

		It("should return nothing for an unknown anchor", func() {
			neighbors, err := store.ListForAnchor(ctx, "prod_unknown", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(neighbors).To(BeEmpty())
		})
	})

	Describe("PairStats", func() {
		It("should aggregate max anchor count and confidence across types", func() {
			similar := edgeBetween(graph.EdgeTypeSimilarTo, "prod_a", "prod_b", 0.6325, "prod_a", "prod_b")
			complements := edgeBetween(graph.EdgeTypeComplements, "prod_a", "prod_b", 0.7274, "prod_a")
			Expect(store.Upsert(ctx, similar)).To(Succeed())
			Expect(store.Upsert(ctx, complements)).To(Succeed())

			stats, err := store.PairStats(ctx, "prod_a", []string{"prod_b", "prod_c"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveKey("prod_b"))
			Expect(stats).NotTo(HaveKey("prod_c"))
			Expect(stats["prod_b"].MaxAnchorCount).To(Equal(2))
			Expect(stats["prod_b"].MaxConfidence).To(BeNumerically("~", 0.7274, 1e-9))
		})
	})
})
