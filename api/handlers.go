package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/graph"
	"github.com/papercomputeco/adjacent/pkg/jobs"
	"github.com/papercomputeco/adjacent/pkg/query"
)

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handlePutItem upserts a catalog item. If the body carries no embedding and
// an embedder is configured, one is computed from the item's text. An
// embedding failure is logged and the item is stored without one; similarity
// search simply won't reach it until it is re-ingested.
func (s *Server) handlePutItem(c *fiber.Ctx) error {
	id := graph.NormalizeID(c.Params("id"))
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	var item catalog.Item
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid item body"})
	}
	item.ID = id

	if len(item.Embedding) == 0 && s.embedder != nil && item.Text() != "" {
		embedding, err := s.embedder.Embed(c.Context(), item.Text())
		if err != nil {
			s.logger.Warn("embedding failed on ingest, storing without one",
				zap.String("item_id", id),
				zap.Error(err),
			)
		} else {
			item.Embedding = embedding
		}
	}

	if err := s.catalog.Put(c.Context(), item); err != nil {
		s.logger.Error("item put failed", zap.String("item_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to store item"})
	}

	return c.Status(fiber.StatusOK).JSON(item)
}

// handleGetItem returns a single catalog item by id.
func (s *Server) handleGetItem(c *fiber.Ctx) error {
	id := graph.NormalizeID(c.Params("id"))
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	item, err := s.catalog.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "item not found"})
		}
		s.logger.Error("item get failed", zap.String("item_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load item"})
	}

	return c.JSON(item)
}

// handleQuery handles GET /v1/query/:id requests: the full read path with
// optional enrichment enqueue.
// Query parameters:
//   - top_k (optional): number of results to return
//   - skip_inference (optional): suppress the enrichment enqueue
//
// The X-Trace-Id header, when present, is propagated to any spawned job.
func (s *Server) handleQuery(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	opts := query.Options{
		TraceID: c.Get("X-Trace-Id"),
	}

	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "top_k must be a positive integer"})
		}
		opts.TopK = parsed
	}

	if skipStr := c.Query("skip_inference"); skipStr != "" {
		skip, err := strconv.ParseBool(skipStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "skip_inference must be a boolean"})
		}
		opts.SkipEnrichment = skip
	}

	result, err := s.engine.Query(c.Context(), id, opts)
	if err != nil {
		switch {
		case errors.Is(err, query.ErrItemNotFound):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "item not found"})
		case errors.Is(err, query.ErrCatalogUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "catalog unavailable"})
		default:
			s.logger.Error("query failed", zap.String("item_id", id), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "query failed"})
		}
	}

	return c.JSON(result)
}

// RelatedResponse is the read-only graph view of an anchor's neighbors.
type RelatedResponse struct {
	AnchorID string       `json:"anchor_id"`
	Edges    []graph.Edge `json:"edges"`
}

// handleRelated handles GET /v1/items/:id/related requests: a read-only view
// of the anchor's graph neighborhood. Never triggers enrichment. The view is
// per-neighbor: each neighbor contributes its highest-confidence edge, and
// the type and min_confidence filters apply to that edge.
// Query parameters:
//   - type (optional): restrict to one edge type
//   - min_confidence (optional): drop edges below this confidence
//   - limit (optional): cap the number of edges returned
func (s *Server) handleRelated(c *fiber.Ctx) error {
	id := graph.NormalizeID(c.Params("id"))
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	var edgeType graph.EdgeType
	if typeStr := c.Query("type"); typeStr != "" {
		edgeType = graph.EdgeType(typeStr)
		if !graph.ValidEdgeType(edgeType) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "unknown edge type"})
		}
	}

	minConfidence := 0.0
	if minStr := c.Query("min_confidence"); minStr != "" {
		parsed, err := strconv.ParseFloat(minStr, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "min_confidence must be a number in [0,1]"})
		}
		minConfidence = parsed
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "limit must be a positive integer"})
		}
		limit = parsed
	}

	if _, err := s.catalog.Get(c.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "item not found"})
		}
		s.logger.Error("item get failed", zap.String("item_id", id), zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "catalog unavailable"})
	}

	neighbors, err := s.edges.ListForAnchor(c.Context(), id, 0)
	if err != nil {
		s.logger.Error("edge listing failed", zap.String("item_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load edges"})
	}

	result := make([]graph.Edge, 0, len(neighbors))
	for _, n := range neighbors {
		if edgeType != "" && n.Edge.Type != edgeType {
			continue
		}
		if n.Edge.Confidence < minConfidence {
			continue
		}
		result = append(result, n.Edge)
		if limit > 0 && len(result) == limit {
			break
		}
	}

	return c.JSON(RelatedResponse{AnchorID: id, Edges: result})
}

// JobStatusResponse reports the lifecycle state of an enrichment job.
type JobStatusResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// handleJobStatus returns the status of an enrichment job. Unknown ids are a
// 404: either the id never existed or its status aged out of the local cache.
func (s *Server) handleJobStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	if s.queue == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "job queue is not configured"})
	}

	status, err := s.queue.Status(c.Context(), id)
	if err != nil {
		s.logger.Error("job status lookup failed", zap.String("job_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load job status"})
	}
	if status == "" || status == jobs.StatusNotFound {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "job not found"})
	}

	return c.JSON(JobStatusResponse{JobID: id, Status: string(status)})
}
