package query_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/graph"
	"github.com/papercomputeco/adjacent/pkg/jobs"
	jobsmem "github.com/papercomputeco/adjacent/pkg/jobs/inmemory"
	"github.com/papercomputeco/adjacent/pkg/query"
	testutils "github.com/papercomputeco/adjacent/pkg/utils/test"
)

var _ = Describe("Engine", func() {
	var (
		ctx       context.Context
		cat       *testutils.FlakyCatalog
		edgeStore *testutils.FlakyEdges
		queue     *jobsmem.Queue
		engine    *query.Engine
	)

	seedItem := func(id string, emb []float32) {
		Expect(cat.Put(ctx, catalog.Item{
			ID:        id,
			Title:     "item " + id,
			Embedding: emb,
		})).To(Succeed())
	}

	seedEdge := func(t graph.EdgeType, a, b string, confidence float64, anchors ...string) graph.Edge {
		lo, hi := graph.CanonicalPair(a, b)
		now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		e := graph.Edge{
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
		Expect(edgeStore.Upsert(ctx, e)).To(Succeed())
		return e
	}

	BeforeEach(func() {
		ctx = context.Background()
		cat = testutils.NewFlakyCatalog()
		edgeStore = testutils.NewFlakyEdges()
		queue = jobsmem.NewQueue(16)

		var err error
		engine, err = query.NewEngine(query.Config{
			Catalog: cat,
			Edges:   edgeStore,
			Queue:   queue,
			Logger:  zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		queue.Close()
	})

	Describe("NewEngine", func() {
		It("should require catalog and edge stores", func() {
			_, err := query.NewEngine(query.Config{Edges: edgeStore})
			Expect(err).To(HaveOccurred())
			_, err = query.NewEngine(query.Config{Catalog: cat})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("anchor lookup", func() {
		It("should return ErrItemNotFound for a missing anchor", func() {
			_, err := engine.Query(ctx, "prod_missing", query.Options{})
			Expect(err).To(MatchError(query.ErrItemNotFound))
		})

		It("should return ErrCatalogUnavailable when the catalog fails", func() {
			cat.FailGet = errors.New("connection refused")
			_, err := engine.Query(ctx, "prod_a", query.Options{})
			Expect(err).To(MatchError(query.ErrCatalogUnavailable))
		})

		It("should not fail the query when the counter increment fails", func() {
			seedItem("prod_a", []float32{1, 0, 0})
			cat.FailIncrement = errors.New("write lock")

			result, err := engine.Query(ctx, "prod_a", query.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AnchorID).To(Equal("prod_a"))
		})
	})

	Describe("graph fast path", func() {
		BeforeEach(func() {
			seedItem("prod_a", []float32{1, 0, 0})
			seedItem("prod_b", []float32{0.9, 0.1, 0})
			seedItem("prod_c", []float32{0.8, 0.2, 0})
			seedEdge(graph.EdgeTypeSimilarTo, "prod_a", "prod_b", 0.9, "prod_a")
		})

		It("should serve graph edges first", func() {
			result, err := engine.Query(ctx, "prod_a", query.Options{TopK: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.FromGraph).To(Equal(1))
			Expect(result.Recommendations[0].ItemID).To(Equal("prod_b"))
			Expect(result.Recommendations[0].Source).To(Equal(query.SourceGraph))
			Expect(result.Recommendations[0].Type).To(Equal(graph.EdgeTypeSimilarTo))
			Expect(result.Recommendations[0].Confidence).To(BeNumerically("~", 0.9, 1e-9))
		})

		It("should fill the remainder from vector search, excluding graph neighbors", func() {
			result, err := engine.Query(ctx, "prod_a", query.Options{TopK: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.FromVector).To(Equal(1))
			Expect(result.Recommendations[1].ItemID).To(Equal("prod_c"))
			Expect(result.Recommendations[1].Source).To(Equal(query.SourceVector))
		})

		It("should report complete and no vector results when the graph fills TopK", func() {
			result, err := engine.Query(ctx, "prod_a", query.Options{TopK: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.FromGraph).To(Equal(1))
			Expect(result.FromVector).To(Equal(0))
			Expect(result.EnrichmentStatus).To(Equal(query.EnrichmentComplete))
			Expect(result.JobID).To(BeEmpty())
		})

		It("should degrade to vector-only when the edge store fails", func() {
			edgeStore.FailList = errors.New("db locked")

			result, err := engine.Query(ctx, "prod_a", query.Options{TopK: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.FromGraph).To(Equal(0))
			Expect(result.FromVector).To(Equal(2))
		})
	})

	Describe("enrichment", func() {
		BeforeEach(func() {
			seedItem("prod_a", []float32{1, 0, 0})
			seedItem("prod_b", []float32{0.9, 0.1, 0})
		})

		It("should enqueue one job for admitted vector candidates", func() {
			result, err := engine.Query(ctx, "prod_a", query.Options{TopK: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.EnrichmentStatus).To(Equal(query.EnrichmentEnqueued))
			Expect(result.JobID).NotTo(BeEmpty())

			job, err := queue.Dequeue(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(job.ID).To(Equal(result.JobID))
			Expect(job.AnchorID).To(Equal("prod_a"))
			Expect(job.CandidateIDs).To(Equal([]string{"prod_b"}))
			Expect(job.TraceID).To(Equal(result.TraceID))
		})

		It("should skip enrichment when asked", func() {
			result, err := engine.Query(ctx, "prod_a", query.Options{TopK: 5, SkipEnrichment: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.EnrichmentStatus).To(Equal(query.EnrichmentSkipped))
			Expect(result.JobID).To(BeEmpty())
		})

		It("should skip enrichment when the gate rejects every pair", func() {
			// Saturate the pair: anchor count at threshold.
			seedEdge(graph.EdgeTypeSimilarTo, "prod_a", "prod_b", 0.69,
				"x1", "x2", "x3", "x4", "x5")
			edgeStore.FailList = errors.New("force vector path")

			result, err := engine.Query(ctx, "prod_a", query.Options{TopK: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.FromVector).To(Equal(1))
			Expect(result.EnrichmentStatus).To(Equal(query.EnrichmentSkipped))
		})

		It("should degrade to skipped when the queue is full", func() {
			full := jobsmem.NewQueue(1)
			defer full.Close()
			Expect(full.Enqueue(ctx, jobsFiller())).To(Succeed())

			e, err := query.NewEngine(query.Config{
				Catalog: cat,
				Edges:   edgeStore,
				Queue:   full,
				Logger:  zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			result, err := e.Query(ctx, "prod_a", query.Options{TopK: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.EnrichmentStatus).To(Equal(query.EnrichmentSkipped))
		})

		It("should skip enrichment when pair stats cannot be read", func() {
			edgeStore.FailPairStats = errors.New("db locked")

			result, err := engine.Query(ctx, "prod_a", query.Options{TopK: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.EnrichmentStatus).To(Equal(query.EnrichmentSkipped))
		})
	})

	Describe("embeddings", func() {
		It("should embed on demand when the anchor has no stored embedding", func() {
			Expect(cat.Put(ctx, catalog.Item{
				ID:          "prod_a",
				Description: "anchor text",
			})).To(Succeed())
			seedItem("prod_b", []float32{0.1, 0.2, 0.3})

			embedder := testutils.NewMockEmbedder()
			embedder.Embeddings["anchor text"] = []float32{0.1, 0.2, 0.3}

			e, err := query.NewEngine(query.Config{
				Catalog:  cat,
				Edges:    edgeStore,
				Queue:    queue,
				Embedder: embedder,
				Logger:   zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			result, err := e.Query(ctx, "prod_a", query.Options{TopK: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.FromVector).To(Equal(1))
			Expect(result.Recommendations[0].ItemID).To(Equal("prod_b"))
		})

		It("should serve graph-only when no embedding can be obtained", func() {
			Expect(cat.Put(ctx, catalog.Item{ID: "prod_a"})).To(Succeed())

			result, err := engine.Query(ctx, "prod_a", query.Options{TopK: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.FromVector).To(Equal(0))
			Expect(result.EnrichmentStatus).To(Equal(query.EnrichmentComplete))
		})
	})
})

func jobsFiller() jobs.Job {
	return jobs.NewJob("prod_filler", nil, "")
}
