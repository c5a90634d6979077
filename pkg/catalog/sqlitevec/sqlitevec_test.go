package sqlitevec_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/catalog/sqlitevec"
)

var _ = Describe("Store", func() {
	var logger *zap.Logger

	BeforeEach(func() {
		logger = zap.NewNop()
	})

	Describe("NewStore", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewStore(sqlitevec.Config{DBPath: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should error when dimensions are not specified", func() {
			_, err := sqlitevec.NewStore(sqlitevec.Config{DBPath: ":memory:"}, logger)
			Expect(err).To(HaveOccurred())
		})

		It("should create a store with an in-memory database", func() {
			store, err := sqlitevec.NewStore(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(store).NotTo(BeNil())
			Expect(store.Close()).To(Succeed())
		})
	})

	Describe("with an open store", func() {
		var (
			store *sqlitevec.Store
			ctx   context.Context
		)

		BeforeEach(func() {
			var err error
			store, err = sqlitevec.NewStore(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			ctx = context.Background()
		})

		AfterEach(func() {
			Expect(store.Close()).To(Succeed())
		})

		Describe("Put and Get", func() {
			It("should round-trip an item with attributes and embedding", func() {
				item := catalog.Item{
					ID:          "prod_headphones",
					Title:       "Wireless Headphones",
					Description: "Over-ear wireless headphones",
					Category:    "audio",
					Brand:       "Acme",
					Tags:        []string{"wireless", "audio"},
					Price:       199.99,
					Currency:    "USD",
					Embedding:   []float32{0.1, 0.2, 0.3, 0.4},
				}
				Expect(store.Put(ctx, item)).To(Succeed())

				got, err := store.Get(ctx, "prod_headphones")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Title).To(Equal("Wireless Headphones"))
				Expect(got.Tags).To(Equal([]string{"wireless", "audio"}))
				Expect(got.Price).To(BeNumerically("~", 199.99, 1e-9))
				Expect(got.Embedding).To(HaveLen(4))
			})

			It("should replace attributes on a second Put with the same id", func() {
				Expect(store.Put(ctx, catalog.Item{
					ID:        "prod_a",
					Title:     "before",
					Embedding: []float32{1, 0, 0, 0},
				})).To(Succeed())
				Expect(store.Put(ctx, catalog.Item{
					ID:        "prod_a",
					Title:     "after",
					Embedding: []float32{0, 1, 0, 0},
				})).To(Succeed())

				got, err := store.Get(ctx, "prod_a")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Title).To(Equal("after"))
			})

			It("should return ErrNotFound for a missing item", func() {
				_, err := store.Get(ctx, "prod_missing")
				Expect(err).To(MatchError(catalog.ErrNotFound))
			})
		})

		Describe("GetMany", func() {
			It("should omit missing ids", func() {
				Expect(store.Put(ctx, catalog.Item{
					ID:        "prod_a",
					Embedding: []float32{1, 0, 0, 0},
				})).To(Succeed())

				items, err := store.GetMany(ctx, []string{"prod_a", "prod_missing"})
				Expect(err).NotTo(HaveOccurred())
				Expect(items).To(HaveLen(1))
				Expect(items[0].ID).To(Equal("prod_a"))
			})
		})

		Describe("SimilaritySearch", func() {
			BeforeEach(func() {
				Expect(store.Put(ctx, catalog.Item{
					ID:        "prod_close",
					Embedding: []float32{1, 0, 0, 0},
				})).To(Succeed())
				Expect(store.Put(ctx, catalog.Item{
					ID:        "prod_near",
					Embedding: []float32{0.9, 0.1, 0, 0},
				})).To(Succeed())
				Expect(store.Put(ctx, catalog.Item{
					ID:        "prod_far",
					Embedding: []float32{0, 0, 0, 1},
				})).To(Succeed())
			})

			It("should return nearest items first", func() {
				results, err := store.SimilaritySearch(ctx, []float32{1, 0, 0, 0}, 2, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(2))
				Expect(results[0].ID).To(Equal("prod_close"))
				Expect(results[1].ID).To(Equal("prod_near"))
			})

			It("should exclude the given ids", func() {
				results, err := store.SimilaritySearch(ctx, []float32{1, 0, 0, 0}, 2, []string{"prod_close"})
				Expect(err).NotTo(HaveOccurred())
				ids := make([]string, 0, len(results))
				for _, r := range results {
					ids = append(ids, r.ID)
				}
				Expect(ids).NotTo(ContainElement("prod_close"))
				Expect(ids[0]).To(Equal("prod_near"))
			})

			It("should return nothing for k <= 0", func() {
				results, err := store.SimilaritySearch(ctx, []float32{1, 0, 0, 0}, 0, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(BeEmpty())
			})
		})

		Describe("counters", func() {
			BeforeEach(func() {
				Expect(store.Put(ctx, catalog.Item{
					ID:        "prod_a",
					Embedding: []float32{1, 0, 0, 0},
				})).To(Succeed())
			})

			It("should increment the query count", func() {
				Expect(store.IncrementQueryCount(ctx, "prod_a")).To(Succeed())
				Expect(store.IncrementQueryCount(ctx, "prod_a")).To(Succeed())

				got, err := store.Get(ctx, "prod_a")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.QueryCount).To(Equal(int64(2)))
			})

			It("should record enrichment bookkeeping", func() {
				at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
				Expect(store.RecordEnrichment(ctx, "prod_a", at)).To(Succeed())

				got, err := store.Get(ctx, "prod_a")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.EnrichmentCount).To(Equal(int64(1)))
				Expect(got.LastEnrichedAt).NotTo(BeNil())
				Expect(got.LastEnrichedAt.Equal(at)).To(BeTrue())
			})

			It("should return ErrNotFound for a missing item", func() {
				Expect(store.IncrementQueryCount(ctx, "prod_missing")).To(MatchError(catalog.ErrNotFound))
				Expect(store.RecordEnrichment(ctx, "prod_missing", time.Now())).To(MatchError(catalog.ErrNotFound))
			})
		})
	})
})
