// Package worker provides the asynchronous enrichment worker pool: it pulls
// jobs off the job queue, runs relationship inference over the anchor and its
// candidates, and materializes the resulting edges.
//
// The pool decouples inference latency from the query hot path. Jobs are
// delivered at least once, so everything here is idempotent: reprocessing a
// job converges to the same edge state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/edges"
	"github.com/papercomputeco/adjacent/pkg/eventstream"
	"github.com/papercomputeco/adjacent/pkg/graph"
	"github.com/papercomputeco/adjacent/pkg/inference"
	"github.com/papercomputeco/adjacent/pkg/jobs"
)

var (
	defaultNumWorkers     uint = 3
	defaultJobTimeout          = 2 * time.Minute
	defaultUpsertRetries       = 3
	defaultDequeueBackoff      = time.Second
)

// Config is the configuration options for the worker pool.
type Config struct {
	// Queue is the job source.
	Queue jobs.Queue

	// Catalog resolves anchors and candidates.
	Catalog catalog.Store

	// Edges persists materialized edges.
	Edges edges.Store

	// Inference proposes relationships.
	Inference inference.Driver

	// Events optionally receives an event per materialized edge.
	// Fire-and-forget: publish failures are logged, never fail the job.
	Events eventstream.Publisher

	// Constants tune the confidence curve. Zero value uses defaults.
	Constants graph.Constants

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// JobTimeout bounds one job end to end, inference included.
	JobTimeout time.Duration

	// UpsertRetries is how many times a failed edge write is retried before
	// the proposal is dropped.
	UpsertRetries int

	// DequeueBackoff is how long a worker waits before retrying after a
	// dequeue error.
	DequeueBackoff time.Duration

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Counts summarizes what one job did to the graph.
type Counts struct {
	EdgesCreated    int `json:"edges_created"`
	EdgesReinforced int `json:"edges_reinforced"`
	EdgesNoop       int `json:"edges_noop"`

	AnchorEdgesCreated    int `json:"anchor_edges_created"`
	CandidateEdgesCreated int `json:"candidate_edges_created"`
}

// Pool processes enrichment jobs asynchronously via a worker pool.
type Pool struct {
	config    *Config
	constants graph.Constants
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	logger    *zap.Logger
}

// NewPool creates a pool. Call Start to begin consuming.
func NewPool(c *Config) (*Pool, error) {
	if c.Queue == nil {
		return nil, fmt.Errorf("job queue is required")
	}
	if c.Catalog == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if c.Edges == nil {
		return nil, fmt.Errorf("edge store is required")
	}
	if c.Inference == nil {
		return nil, fmt.Errorf("inference driver is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}
	if c.UpsertRetries <= 0 {
		c.UpsertRetries = defaultUpsertRetries
	}
	if c.DequeueBackoff <= 0 {
		c.DequeueBackoff = defaultDequeueBackoff
	}

	constants := c.Constants
	if constants == (graph.Constants{}) {
		constants = graph.DefaultConstants()
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool{
		config:    c,
		constants: constants,
		logger:    logger,
	}, nil
}

// Start launches the worker goroutines. They run until the context is
// canceled, the queue closes, or Close is called.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(int(p.config.NumWorkers))
	for i := range p.config.NumWorkers {
		go p.worker(ctx, i)
	}
}

// Close signals workers to stop and waits for in-flight jobs to finish.
func (p *Pool) Close() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the queue
func (p *Pool) worker(ctx context.Context, id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for {
		job, err := p.config.Queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, jobs.ErrClosed) {
				p.logger.Debug("worker stopped", zap.Uint("worker_id", id))
				return
			}
			p.logger.Error("dequeue failed", zap.Uint("worker_id", id), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.config.DequeueBackoff):
			}
			continue
		}

		if err := p.processJob(ctx, job); err != nil {
			// Failed jobs stay unacknowledged so the queue may redeliver
			// them; materialization is idempotent either way.
			continue
		}

		if err := p.config.Queue.Ack(ctx, job); err != nil {
			p.logger.Warn("job ack failed",
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
		}
	}
}

// processJob runs one enrichment job. A job failure is recorded, logged, and
// returned so the caller can leave the job unacknowledged; it never takes the
// worker down.
func (p *Pool) processJob(ctx context.Context, job jobs.Job) error {
	p.setStatus(ctx, job.ID, jobs.StatusRunning)

	jctx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	defer cancel()

	log := p.logger.With(
		zap.String("job_id", job.ID),
		zap.String("anchor_id", job.AnchorID),
		zap.String("trace_id", job.TraceID),
	)

	anchor, err := p.config.Catalog.Get(jctx, job.AnchorID)
	if err != nil {
		log.Warn("anchor lookup failed, job failed", zap.Error(err))
		p.setStatus(ctx, job.ID, jobs.StatusFailed)
		return fmt.Errorf("anchor lookup: %w", err)
	}

	candidates, err := p.config.Catalog.GetMany(jctx, job.CandidateIDs)
	if err != nil {
		log.Warn("candidate lookup failed, job failed", zap.Error(err))
		p.setStatus(ctx, job.ID, jobs.StatusFailed)
		return fmt.Errorf("candidate lookup: %w", err)
	}
	if dropped := len(job.CandidateIDs) - len(candidates); dropped > 0 {
		log.Warn("missing candidates dropped", zap.Int("dropped", dropped))
	}

	counts := Counts{}
	if len(candidates) > 0 {
		proposals, err := p.config.Inference.Infer(jctx, *anchor, candidates)
		if err != nil {
			log.Error("inference failed, job failed", zap.Error(err))
			p.setStatus(ctx, job.ID, jobs.StatusFailed)
			return fmt.Errorf("inference: %w", err)
		}

		counts, err = p.materializeAll(jctx, job, proposals, log)
		if err != nil {
			log.Error("materialization failed, job failed", zap.Error(err))
			p.setStatus(ctx, job.ID, jobs.StatusFailed)
			return err
		}
	}

	if err := p.config.Catalog.RecordEnrichment(jctx, job.AnchorID, time.Now().UTC()); err != nil {
		log.Warn("enrichment bookkeeping failed", zap.Error(err))
	}

	p.setStatus(ctx, job.ID, jobs.StatusFinished)
	log.Info("enrichment job finished",
		zap.Int("edges_created", counts.EdgesCreated),
		zap.Int("edges_reinforced", counts.EdgesReinforced),
		zap.Int("edges_noop", counts.EdgesNoop),
		zap.Int("anchor_edges_created", counts.AnchorEdgesCreated),
		zap.Int("candidate_edges_created", counts.CandidateEdgesCreated),
	)
	return nil
}

// materializeAll folds every valid proposal into edge state. Malformed
// proposals are dropped with a warning; they never reach the materializer.
// When every valid proposal is dropped by the store, the job has produced
// nothing and an error is returned so redelivery can recover it.
func (p *Pool) materializeAll(ctx context.Context, job jobs.Job, proposals []graph.Proposal, log *zap.Logger) (Counts, error) {
	counts := Counts{}
	now := time.Now().UTC()

	attempted, dropped := 0, 0
	var lastErr error

	for _, proposal := range proposals {
		if err := proposal.Validate(); err != nil {
			log.Warn("invalid proposal dropped",
				zap.String("edge_type", string(proposal.Type)),
				zap.String("from_id", proposal.FromID),
				zap.String("to_id", proposal.ToID),
				zap.Error(err),
			)
			continue
		}
		attempted++

		edge, action, err := p.materializeOne(ctx, job, proposal, now)
		if err != nil {
			log.Warn("proposal dropped after retries",
				zap.String("edge_id", proposal.EdgeID()),
				zap.Error(err),
			)
			dropped++
			lastErr = err
			continue
		}

		switch action {
		case graph.ActionCreated:
			counts.EdgesCreated++
			if edge.CreatedKind == graph.CreatedAnchorCandidate {
				counts.AnchorEdgesCreated++
			} else {
				counts.CandidateEdgesCreated++
			}
		case graph.ActionReinforced:
			counts.EdgesReinforced++
		case graph.ActionNoop:
			counts.EdgesNoop++
		}

		if action != graph.ActionNoop {
			p.publishEdge(ctx, job, edge, action, log)
		}
	}

	if attempted > 0 && dropped == attempted {
		return counts, fmt.Errorf("all %d proposals dropped: %w", dropped, lastErr)
	}

	return counts, nil
}

// materializeOne reads current edge state, materializes, and writes back,
// retrying the read-materialize-write on store errors.
func (p *Pool) materializeOne(ctx context.Context, job jobs.Job, proposal graph.Proposal, now time.Time) (graph.Edge, graph.Action, error) {
	var lastErr error

	for attempt := 0; attempt <= p.config.UpsertRetries; attempt++ {
		existing, err := p.config.Edges.GetByID(ctx, proposal.EdgeID())
		if err != nil && !errors.Is(err, edges.ErrNotFound) {
			lastErr = err
			continue
		}

		edge, action := graph.Materialize(proposal, job.AnchorID, job.ID, existing, now, p.constants)
		if action == graph.ActionNoop {
			return edge, action, nil
		}

		if err := p.config.Edges.Upsert(ctx, edge); err != nil {
			lastErr = err
			continue
		}

		return edge, action, nil
	}

	return graph.Edge{}, "", lastErr
}

func (p *Pool) publishEdge(ctx context.Context, job jobs.Job, edge graph.Edge, action graph.Action, log *zap.Logger) {
	if p.config.Events == nil {
		return
	}

	event := &eventstream.EdgeMaterializedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeEdgeMaterialized,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Job: eventstream.JobMeta{
			JobID:    job.ID,
			AnchorID: job.AnchorID,
			TraceID:  job.TraceID,
		},
		Action: action,
		Edge:   edge,
	}

	if err := p.config.Events.PublishEdge(ctx, event); err != nil {
		log.Warn("edge event publish failed",
			zap.String("edge_id", edge.ID),
			zap.Error(err),
		)
	}
}

func (p *Pool) setStatus(ctx context.Context, id string, status jobs.Status) {
	if err := p.config.Queue.SetStatus(ctx, id, status); err != nil {
		p.logger.Warn("status update failed",
			zap.String("job_id", id),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}
