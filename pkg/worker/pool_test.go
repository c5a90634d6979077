package worker_test

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
	testutils "github.com/papercomputeco/adjacent/pkg/utils/test"
	"github.com/papercomputeco/adjacent/pkg/worker"
)

var _ = Describe("Pool", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		cat       *testutils.FlakyCatalog
		edgeStore *testutils.FlakyEdges
		queue     *testutils.FlakyQueue
		inf       *testutils.MockInference
		events    *testutils.RecordingPublisher
		pool      *worker.Pool
	)

	startPool := func() {
		var err error
		pool, err = worker.NewPool(&worker.Config{
			Queue:          queue,
			Catalog:        cat,
			Edges:          edgeStore,
			Inference:      inf,
			Events:         events,
			NumWorkers:     1,
			JobTimeout:     5 * time.Second,
			DequeueBackoff: 20 * time.Millisecond,
			Logger:         zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		pool.Start(ctx)
	}

	waitFor := func(jobID string, want jobs.Status) {
		Eventually(func() jobs.Status {
			s, _ := queue.Status(context.Background(), jobID)
			return s
		}).WithTimeout(2 * time.Second).WithPolling(5 * time.Millisecond).Should(Equal(want))
	}

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		cat = testutils.NewFlakyCatalog()
		edgeStore = testutils.NewFlakyEdges()
		queue = testutils.NewFlakyQueue(16)
		inf = testutils.NewMockInference()
		events = testutils.NewRecordingPublisher()

		for _, id := range []string{"prod_a", "prod_b", "prod_c"} {
			Expect(cat.Put(context.Background(), catalog.Item{
				ID:    id,
				Title: "item " + id,
			})).To(Succeed())
		}
	})

	AfterEach(func() {
		cancel()
		if pool != nil {
			pool.Close()
			pool = nil
		}
		queue.Close()
	})

	Describe("NewPool", func() {
		It("should require all core dependencies", func() {
			_, err := worker.NewPool(&worker.Config{
				Catalog: cat, Edges: edgeStore, Inference: inf,
			})
			Expect(err).To(HaveOccurred())

			_, err = worker.NewPool(&worker.Config{
				Queue: queue, Edges: edgeStore, Inference: inf,
			})
			Expect(err).To(HaveOccurred())

			_, err = worker.NewPool(&worker.Config{
				Queue: queue, Catalog: cat, Inference: inf,
			})
			Expect(err).To(HaveOccurred())

			_, err = worker.NewPool(&worker.Config{
				Queue: queue, Catalog: cat, Edges: edgeStore,
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("processing a job", func() {
		It("should materialize proposals into edges", func() {
			inf.Proposals = []graph.Proposal{
				{Type: graph.EdgeTypeSimilarTo, FromID: "prod_a", ToID: "prod_b"},
				{Type: graph.EdgeTypeComplements, FromID: "prod_b", ToID: "prod_c"},
			}
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b", "prod_c"}, "trace-1")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFinished)

			similar, err := edgeStore.GetByID(ctx, graph.ComputeEdgeID(graph.EdgeTypeSimilarTo, "prod_a", "prod_b"))
			Expect(err).NotTo(HaveOccurred())
			Expect(similar.Confidence).To(BeNumerically("~", 0.55, 1e-9))
			Expect(similar.AnchorsSeen).To(Equal([]string{"prod_a"}))
			Expect(similar.Status).To(Equal(graph.StatusProposed))
			Expect(similar.CreatedKind).To(Equal(graph.CreatedAnchorCandidate))
			Expect(similar.CreatedInJobID).To(Equal(job.ID))

			between, err := edgeStore.GetByID(ctx, graph.ComputeEdgeID(graph.EdgeTypeComplements, "prod_b", "prod_c"))
			Expect(err).NotTo(HaveOccurred())
			Expect(between.CreatedKind).To(Equal(graph.CreatedCandidateCandidate))
		})

		It("should record enrichment bookkeeping on the anchor", func() {
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b"}, "")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFinished)

			anchor, err := cat.Get(ctx, "prod_a")
			Expect(err).NotTo(HaveOccurred())
			Expect(anchor.EnrichmentCount).To(Equal(int64(1)))
			Expect(anchor.LastEnrichedAt).NotTo(BeNil())
		})

		It("should publish an event per materialized edge", func() {
			inf.Proposals = []graph.Proposal{
				{Type: graph.EdgeTypeSimilarTo, FromID: "prod_a", ToID: "prod_b"},
			}
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b"}, "trace-1")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFinished)

			published := events.Events()
			Expect(published).To(HaveLen(1))
			Expect(published[0].Action).To(Equal(graph.ActionCreated))
			Expect(published[0].Job.JobID).To(Equal(job.ID))
			Expect(published[0].Job.TraceID).To(Equal("trace-1"))
			Expect(published[0].Edge.ID).To(Equal(graph.ComputeEdgeID(graph.EdgeTypeSimilarTo, "prod_a", "prod_b")))
		})

		It("should drop invalid proposals and keep the valid ones", func() {
			inf.Proposals = []graph.Proposal{
				{Type: "RELATED_TO", FromID: "prod_a", ToID: "prod_b"},
				{Type: graph.EdgeTypeSimilarTo, FromID: "prod_a", ToID: "prod_a"},
				{Type: graph.EdgeTypeSimilarTo, FromID: "prod_a", ToID: "prod_b"},
			}
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b"}, "")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFinished)

			Expect(events.Events()).To(HaveLen(1))
			_, err := edgeStore.GetByID(ctx, graph.ComputeEdgeID(graph.EdgeTypeSimilarTo, "prod_a", "prod_b"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should drop missing candidates and still finish", func() {
			inf.Proposals = []graph.Proposal{
				{Type: graph.EdgeTypeSimilarTo, FromID: "prod_a", ToID: "prod_b"},
			}
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b", "prod_gone"}, "")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFinished)

			Expect(inf.LastCandidates).To(HaveLen(1))
		})

		It("should retry a failing upsert before dropping the proposal", func() {
			inf.Proposals = []graph.Proposal{
				{Type: graph.EdgeTypeSimilarTo, FromID: "prod_a", ToID: "prod_b"},
			}
			edgeStore.FailUpsert = errors.New("transient conflict")
			edgeStore.FailUpsertTimes = 1
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b"}, "")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFinished)

			_, err := edgeStore.GetByID(ctx, graph.ComputeEdgeID(graph.EdgeTypeSimilarTo, "prod_a", "prod_b"))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("job failures", func() {
		It("should fail the job when the anchor is missing", func() {
			startPool()

			job := jobs.NewJob("prod_gone", []string{"prod_b"}, "")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFailed)
		})

		It("should fail the job when inference fails", func() {
			inf.Err = errors.New("model unavailable")
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b"}, "")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFailed)
		})

		It("should keep processing after a failed job", func() {
			startPool()

			bad := jobs.NewJob("prod_gone", []string{"prod_b"}, "")
			good := jobs.NewJob("prod_a", []string{"prod_b"}, "")
			Expect(queue.Enqueue(ctx, bad)).To(Succeed())
			Expect(queue.Enqueue(ctx, good)).To(Succeed())

			waitFor(bad.ID, jobs.StatusFailed)
			waitFor(good.ID, jobs.StatusFinished)
		})

		It("should fail the job when the store drops every proposal", func() {
			inf.Proposals = []graph.Proposal{
				{Type: graph.EdgeTypeSimilarTo, FromID: "prod_a", ToID: "prod_b"},
				{Type: graph.EdgeTypeComplements, FromID: "prod_a", ToID: "prod_c"},
			}
			edgeStore.FailUpsert = errors.New("store down")
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b", "prod_c"}, "")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFailed)
		})

		It("should finish the job when only some proposals are dropped", func() {
			inf.Proposals = []graph.Proposal{
				{Type: graph.EdgeTypeSimilarTo, FromID: "prod_a", ToID: "prod_b"},
				{Type: graph.EdgeTypeComplements, FromID: "prod_a", ToID: "prod_c"},
			}
			// First proposal exhausts its retries; the second goes through.
			edgeStore.FailUpsert = errors.New("transient conflict")
			edgeStore.FailUpsertTimes = 4
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b", "prod_c"}, "")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFinished)

			_, err := edgeStore.GetByID(ctx, graph.ComputeEdgeID(graph.EdgeTypeComplements, "prod_a", "prod_c"))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("delivery semantics", func() {
		It("should acknowledge a job after processing completes", func() {
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b"}, "")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFinished)

			Eventually(queue.Acked).
				WithTimeout(2 * time.Second).WithPolling(5 * time.Millisecond).
				Should(ContainElement(job.ID))
		})

		It("should leave a failed job unacknowledged for redelivery", func() {
			startPool()

			bad := jobs.NewJob("prod_gone", []string{"prod_b"}, "")
			good := jobs.NewJob("prod_a", []string{"prod_b"}, "")
			Expect(queue.Enqueue(ctx, bad)).To(Succeed())
			Expect(queue.Enqueue(ctx, good)).To(Succeed())

			waitFor(bad.ID, jobs.StatusFailed)
			waitFor(good.ID, jobs.StatusFinished)

			Eventually(queue.Acked).
				WithTimeout(2 * time.Second).WithPolling(5 * time.Millisecond).
				Should(ContainElement(good.ID))
			Expect(queue.Acked()).NotTo(ContainElement(bad.ID))
		})

		It("should back off and keep consuming after a dequeue error", func() {
			queue.FailNextDequeue(errors.New("broker hiccup"))
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b"}, "")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFinished)
		})
	})

	Describe("idempotence and reinforcement", func() {
		It("should converge on redelivery of the same job", func() {
			inf.Proposals = []graph.Proposal{
				{Type: graph.EdgeTypeSimilarTo, FromID: "prod_a", ToID: "prod_b"},
			}
			startPool()

			job := jobs.NewJob("prod_a", []string{"prod_b"}, "")
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFinished)

			// Same job id, same anchor: redelivery.
			Expect(queue.SetStatus(ctx, job.ID, jobs.StatusQueued)).To(Succeed())
			Expect(queue.Enqueue(ctx, job)).To(Succeed())
			waitFor(job.ID, jobs.StatusFinished)

			edge, err := edgeStore.GetByID(ctx, graph.ComputeEdgeID(graph.EdgeTypeSimilarTo, "prod_a", "prod_b"))
			Expect(err).NotTo(HaveOccurred())
			Expect(edge.AnchorsSeen).To(Equal([]string{"prod_a"}))
			Expect(edge.Confidence).To(BeNumerically("~", 0.55, 1e-9))
			Expect(events.Events()).To(HaveLen(1))
		})

		It("should grow confidence per distinct anchor and flip ACTIVE at the third", func() {
			startPool()

			edgeID := graph.ComputeEdgeID(graph.EdgeTypeSimilarTo, "prod_b", "prod_c")

			run := func(anchor, other string) {
				inf.Proposals = []graph.Proposal{
					{Type: graph.EdgeTypeSimilarTo, FromID: "prod_b", ToID: "prod_c"},
				}
				job := jobs.NewJob(anchor, []string{other}, "")
				Expect(queue.Enqueue(ctx, job)).To(Succeed())
				waitFor(job.ID, jobs.StatusFinished)
			}

			run("prod_b", "prod_c")
			edge, err := edgeStore.GetByID(ctx, edgeID)
			Expect(err).NotTo(HaveOccurred())
			Expect(edge.Confidence).To(BeNumerically("~", 0.55, 1e-9))
			Expect(edge.Status).To(Equal(graph.StatusProposed))

			run("prod_c", "prod_b")
			edge, err = edgeStore.GetByID(ctx, edgeID)
			Expect(err).NotTo(HaveOccurred())
			Expect(edge.Confidence).To(BeNumerically("~", 0.6325, 1e-9))
			Expect(edge.Status).To(Equal(graph.StatusProposed))

			run("prod_a", "prod_b")
			edge, err = edgeStore.GetByID(ctx, edgeID)
			Expect(err).NotTo(HaveOccurred())
			Expect(edge.Confidence).To(BeNumerically("~", 0.7274, 1e-9))
			Expect(edge.Status).To(Equal(graph.StatusActive))
			Expect(edge.AnchorsSeen).To(Equal([]string{"prod_b", "prod_c", "prod_a"}))
		})
	})
})
