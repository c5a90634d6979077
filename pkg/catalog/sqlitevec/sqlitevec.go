// Package sqlitevec provides a SQLite-backed catalog store using sqlite-vec
// for nearest-neighbor search. Item attributes live in a regular table; the
// vec0 virtual table holds embeddings keyed by the item row id.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/catalog"
)

// Store implements catalog.Store using SQLite with sqlite-vec.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds configuration for the sqlite-vec catalog store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the embedding vector dimensionality. Required.
	Dimensions uint
}

// NewStore creates a sqlite-vec backed catalog store.
func NewStore(c Config, logger *zap.Logger) (*Store, error) {
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 virtual tables use integer rowids, so items carries the mapping
	// from string item ids to rowids alongside the scalar attributes.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			price REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT '',
			query_count INTEGER NOT NULL DEFAULT 0,
			enrichment_count INTEGER NOT NULL DEFAULT 0,
			last_enriched_at TEXT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating items table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS item_embeddings USING vec0(embedding float[%d])`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec catalog store initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Store{db: db, logger: logger}, nil
}

// serializeFloat32 converts a float32 slice to the little-endian BLOB format
// sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Put stores an item, replacing any existing item with the same id.
func (s *Store) Put(ctx context.Context, item catalog.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags for item %s: %w", item.ID, err)
	}

	var rowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT rowid FROM items WHERE item_id = ?`, item.ID,
	).Scan(&rowID)

	switch err {
	case nil:
		if _, err := tx.ExecContext(ctx, `
			UPDATE items
			SET title = ?, description = ?, category = ?, brand = ?,
				tags = ?, price = ?, currency = ?
			WHERE rowid = ?`,
			item.Title, item.Description, item.Category, item.Brand,
			string(tags), item.Price, item.Currency, rowID,
		); err != nil {
			return fmt.Errorf("updating item %s: %w", item.ID, err)
		}
	case sql.ErrNoRows:
		result, err := tx.ExecContext(ctx, `
			INSERT INTO items (item_id, title, description, category, brand, tags, price, currency)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Title, item.Description, item.Category, item.Brand,
			string(tags), item.Price, item.Currency,
		)
		if err != nil {
			return fmt.Errorf("inserting item %s: %w", item.ID, err)
		}
		rowID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for item %s: %w", item.ID, err)
		}
	default:
		return fmt.Errorf("checking for existing item %s: %w", item.ID, err)
	}

	if len(item.Embedding) > 0 {
		// vec0 does not support UPDATE; replace via DELETE + INSERT.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM item_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting old embedding for item %s: %w", item.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, serializeFloat32(item.Embedding),
		); err != nil {
			return fmt.Errorf("inserting embedding for item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Get retrieves an item by id.
func (s *Store) Get(ctx context.Context, id string) (*catalog.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT i.rowid, i.item_id, i.title, i.description, i.category, i.brand,
			i.tags, i.price, i.currency, i.query_count, i.enrichment_count,
			i.last_enriched_at
		FROM items i
		WHERE i.item_id = ?`, id)

	item, rowID, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning item: %w", err)
	}

	var embBlob []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT embedding FROM item_embeddings WHERE rowid = ?`, rowID,
	).Scan(&embBlob)
	if err == nil && len(embBlob) > 0 {
		item.Embedding, _ = deserializeFloat32(embBlob)
	}

	return item, nil
}

// GetMany retrieves the items that exist among ids; missing ids are omitted.
func (s *Store) GetMany(ctx context.Context, ids []string) ([]catalog.Item, error) {
	items := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		item, err := s.Get(ctx, id)
		if err == catalog.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// SimilaritySearch returns up to k items nearest to the embedding, excluding
// the given ids. KNN via vec0 MATCH, joined back to items for ids.
func (s *Store) SimilaritySearch(ctx context.Context, embedding []float32, k int, exclude []string) ([]catalog.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	// Over-fetch so post-KNN exclusion does not starve the result set.
	fetch := k + len(exclude)

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.item_id, ve.distance
		FROM item_embeddings ve
		INNER JOIN items i ON i.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance
	`, serializeFloat32(embedding), fetch)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	var results []catalog.SearchResult
	for rows.Next() {
		var itemID string
		var distance float64
		if err := rows.Scan(&itemID, &distance); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		if excluded[itemID] || len(results) >= k {
			continue
		}

		results = append(results, catalog.SearchResult{
			ID: itemID,
			// Lower distance = higher similarity.
			Score: float32(1.0 / (1.0 + distance)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	s.logger.Debug("similarity search via sqlite-vec",
		zap.Int("results", len(results)),
	)

	return results, nil
}

// IncrementQueryCount bumps the item's query counter.
func (s *Store) IncrementQueryCount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET query_count = query_count + 1 WHERE item_id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("incrementing query count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// RecordEnrichment stamps the item's enrichment bookkeeping.
func (s *Store) RecordEnrichment(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET enrichment_count = enrichment_count + 1, last_enriched_at = ?
		WHERE item_id = ?`,
		at.UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("recording enrichment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanItem(row *sql.Row) (*catalog.Item, int64, error) {
	var (
		item       catalog.Item
		rowID      int64
		tags       string
		enrichedAt sql.NullString
	)

	err := row.Scan(&rowID, &item.ID, &item.Title, &item.Description,
		&item.Category, &item.Brand, &tags, &item.Price, &item.Currency,
		&item.QueryCount, &item.EnrichmentCount, &enrichedAt)
	if err != nil {
		return nil, 0, err
	}

	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
			return nil, 0, fmt.Errorf("unmarshaling tags: %w", err)
		}
	}
	if enrichedAt.Valid && strings.TrimSpace(enrichedAt.String) != "" {
		if t, err := time.Parse(time.RFC3339Nano, enrichedAt.String); err == nil {
			item.LastEnrichedAt = &t
		}
	}

	return &item, rowID, nil
}

var _ catalog.Store = (*Store)(nil)
