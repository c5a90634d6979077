// Package qdrant provides a Qdrant-backed catalog store. Item attributes and
// counters live in point payloads; similarity search uses Qdrant's cosine
// KNN query API.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/catalog"
)

// Qdrant point ids must be UUIDs or integers, so the string item id is
// mapped to a deterministic UUID and kept verbatim in the payload.
var pointNamespace = uuid.MustParse("7b9c4a1e-2f63-4d08-9b51-c0a8d4e6f213")

func pointID(itemID string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(pointNamespace, []byte(itemID)).String())
}

// Store implements catalog.Store backed by a Qdrant collection.
type Store struct {
	client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

// Config holds configuration for the Qdrant catalog store.
type Config struct {
	// Host is the Qdrant gRPC host.
	Host string

	// Port is the Qdrant gRPC port.
	Port int

	// APIKey authenticates against a managed Qdrant instance. Optional.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// Collection is the collection name holding catalog items.
	Collection string

	// Dimensions is the embedding vector dimensionality. Required.
	Dimensions uint64
}

// NewStore creates a Qdrant-backed catalog store, creating the collection if
// it does not exist.
func NewStore(ctx context.Context, c Config, logger *zap.Logger) (*Store, error) {
	if c.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("embedding dimensions cannot be 0, must be configured")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   c.Port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	exists, err := client.CollectionExists(ctx, c.Collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("checking collection %s: %w", c.Collection, err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: c.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     c.Dimensions,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %s: %w", c.Collection, err)
		}
	}

	logger.Info("qdrant catalog store initialized",
		zap.String("host", c.Host),
		zap.Int("port", c.Port),
		zap.String("collection", c.Collection),
		zap.Uint64("dimensions", c.Dimensions),
	)

	return &Store{client: client, collection: c.Collection, logger: logger}, nil
}

// Put stores an item, replacing any existing item with the same id.
func (s *Store) Put(ctx context.Context, item catalog.Item) error {
	if len(item.Embedding) == 0 {
		return fmt.Errorf("item %s has no embedding: qdrant points require a vector", item.ID)
	}

	tags := make([]any, len(item.Tags))
	for i, t := range item.Tags {
		tags[i] = t
	}

	payload := qdrant.NewValueMap(map[string]any{
		"item_id":          item.ID,
		"title":            item.Title,
		"description":      item.Description,
		"category":         item.Category,
		"brand":            item.Brand,
		"tags":             tags,
		"price":            item.Price,
		"currency":         item.Currency,
		"query_count":      item.QueryCount,
		"enrichment_count": item.EnrichmentCount,
	})
	if item.LastEnrichedAt != nil {
		payload["last_enriched_at"] = qdrant.NewValueString(
			item.LastEnrichedAt.UTC().Format(time.RFC3339Nano))
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      pointID(item.ID),
			Vectors: qdrant.NewVectors(item.Embedding...),
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("upserting item %s: %w", item.ID, err)
	}

	return nil
}

// Get retrieves an item by id.
func (s *Store) Get(ctx context.Context, id string) (*catalog.Item, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{pointID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting item %s: %w", id, err)
	}
	if len(points) == 0 {
		return nil, catalog.ErrNotFound
	}

	item := itemFromPayload(points[0].GetPayload())
	if v := points[0].GetVectors().GetVector(); v != nil {
		item.Embedding = v.GetData()
	}

	return &item, nil
}

// GetMany retrieves the items that exist among ids; missing ids are omitted.
func (s *Store) GetMany(ctx context.Context, ids []string) ([]catalog.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointID(id)
	}

	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting items: %w", err)
	}

	// Qdrant returns points in arbitrary order; restore the request order.
	byID := make(map[string]catalog.Item, len(points))
	for _, p := range points {
		item := itemFromPayload(p.GetPayload())
		if v := p.GetVectors().GetVector(); v != nil {
			item.Embedding = v.GetData()
		}
		byID[item.ID] = item
	}

	items := make([]catalog.Item, 0, len(byID))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			items = append(items, item)
		}
	}

	return items, nil
}

// SimilaritySearch returns up to k items nearest to the embedding, excluding
// the given ids via a payload filter.
func (s *Store) SimilaritySearch(ctx context.Context, embedding []float32, k int, exclude []string) ([]catalog.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	var filter *qdrant.Filter
	if len(exclude) > 0 {
		mustNot := make([]*qdrant.Condition, len(exclude))
		for i, id := range exclude {
			mustNot[i] = qdrant.NewMatchKeyword("item_id", id)
		}
		filter = &qdrant.Filter{MustNot: mustNot}
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(k)),
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayloadInclude("item_id"),
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", s.collection, err)
	}

	results := make([]catalog.SearchResult, 0, len(points))
	for _, p := range points {
		id := p.GetPayload()["item_id"].GetStringValue()
		if id == "" {
			continue
		}
		results = append(results, catalog.SearchResult{
			ID:    id,
			Score: p.GetScore(),
		})
	}

	s.logger.Debug("similarity search via qdrant",
		zap.Int("results", len(results)),
	)

	return results, nil
}

// IncrementQueryCount bumps the item's query counter. Read-modify-write on
// the payload; lost updates under race are acceptable.
func (s *Store) IncrementQueryCount(ctx context.Context, id string) error {
	current, err := s.payloadCounter(ctx, id, "query_count")
	if err != nil {
		return err
	}

	return s.setPayload(ctx, id, map[string]any{"query_count": current + 1})
}

// RecordEnrichment stamps the item's enrichment bookkeeping. Best-effort.
func (s *Store) RecordEnrichment(ctx context.Context, id string, at time.Time) error {
	current, err := s.payloadCounter(ctx, id, "enrichment_count")
	if err != nil {
		return err
	}

	return s.setPayload(ctx, id, map[string]any{
		"enrichment_count": current + 1,
		"last_enriched_at": at.UTC().Format(time.RFC3339Nano),
	})
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) payloadCounter(ctx context.Context, id, field string) (int64, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{pointID(id)},
		WithPayload:    qdrant.NewWithPayloadInclude(field),
	})
	if err != nil {
		return 0, fmt.Errorf("getting item %s: %w", id, err)
	}
	if len(points) == 0 {
		return 0, catalog.ErrNotFound
	}

	return points[0].GetPayload()[field].GetIntegerValue(), nil
}

func (s *Store) setPayload(ctx context.Context, id string, fields map[string]any) error {
	_, err := s.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: s.collection,
		Payload:        qdrant.NewValueMap(fields),
		PointsSelector: qdrant.NewPointsSelector(pointID(id)),
	})
	if err != nil {
		return fmt.Errorf("setting payload for item %s: %w", id, err)
	}
	return nil
}

func itemFromPayload(p map[string]*qdrant.Value) catalog.Item {
	item := catalog.Item{
		ID:              p["item_id"].GetStringValue(),
		Title:           p["title"].GetStringValue(),
		Description:     p["description"].GetStringValue(),
		Category:        p["category"].GetStringValue(),
		Brand:           p["brand"].GetStringValue(),
		Price:           p["price"].GetDoubleValue(),
		Currency:        p["currency"].GetStringValue(),
		QueryCount:      p["query_count"].GetIntegerValue(),
		EnrichmentCount: p["enrichment_count"].GetIntegerValue(),
	}

	for _, v := range p["tags"].GetListValue().GetValues() {
		if tag := v.GetStringValue(); tag != "" {
			item.Tags = append(item.Tags, tag)
		}
	}

	if raw := p["last_enriched_at"].GetStringValue(); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			item.LastEnrichedAt = &t
		}
	}

	return item
}

var _ catalog.Store = (*Store)(nil)
