// Package sqlite provides a SQLite-backed edge store. Upserts run inside an
// immediate transaction so concurrent merges of the same edge id serialize
// instead of clobbering each other.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/papercomputeco/adjacent/pkg/edges"
	"github.com/papercomputeco/adjacent/pkg/graph"
)

// Store implements edges.Store using SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore creates a SQLite-backed edge store. The dbPath can be a file path
// or ":memory:" for an in-memory database.
func NewStore(dbPath string, logger *zap.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Immediate transactions take the write lock up front, so the
	// read-merge-write in Upsert cannot deadlock against another writer.
	db, err := sql.Open("sqlite3", dbPath+"?_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	logger.Info("sqlite edge store initialized", zap.String("db_path", dbPath))

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS edges (
		id TEXT PRIMARY KEY,
		edge_type TEXT NOT NULL,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		confidence REAL NOT NULL,
		anchors_seen TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		last_reinforced_at TEXT NOT NULL,
		created_under_anchor_id TEXT NOT NULL DEFAULT '',
		created_in_job_id TEXT NOT NULL DEFAULT '',
		created_kind TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_edges_from_id ON edges(from_id);
	CREATE INDEX IF NOT EXISTS idx_edges_to_id ON edges(to_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetByID retrieves an edge by id.
func (s *Store) GetByID(ctx context.Context, id string) (*graph.Edge, error) {
	row := s.db.QueryRowContext(ctx, selectEdge+` WHERE id = ?`, id)

	e, err := scanEdge(row.Scan)
	if err == sql.ErrNoRows {
		return nil, edges.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning edge: %w", err)
	}

	return e, nil
}

// ListForAnchor returns the anchor's neighbors, best edge per neighbor,
// confidence descending with recency as the tiebreak.
func (s *Store) ListForAnchor(ctx context.Context, anchorID string, limit int) ([]edges.Neighbor, error) {
	anchor := graph.NormalizeID(anchorID)

	rows, err := s.db.QueryContext(ctx, selectEdge+`
		WHERE from_id = ? OR to_id = ?
		ORDER BY confidence DESC, last_reinforced_at DESC`,
		anchor, anchor)
	if err != nil {
		return nil, fmt.Errorf("querying edges for anchor %s: %w", anchor, err)
	}
	defer rows.Close()

	// Rows arrive best-first, so the first edge seen per neighbor wins.
	seen := make(map[string]bool)
	var out []edges.Neighbor
	for rows.Next() {
		e, err := scanEdge(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}

		other := e.FromID
		if other == anchor {
			other = e.ToID
		}
		if seen[other] {
			continue
		}
		seen[other] = true

		out = append(out, edges.Neighbor{CandidateID: other, Edge: *e})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}

	return out, nil
}

// PairStats aggregates per-candidate stats across all edge types.
func (s *Store) PairStats(ctx context.Context, anchorID string, candidateIDs []string) (map[string]graph.PairStats, error) {
	anchor := graph.NormalizeID(anchorID)
	wanted := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		wanted[graph.NormalizeID(id)] = true
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT from_id, to_id, confidence, anchors_seen
		FROM edges
		WHERE from_id = ? OR to_id = ?`,
		anchor, anchor)
	if err != nil {
		return nil, fmt.Errorf("querying pair stats for anchor %s: %w", anchor, err)
	}
	defer rows.Close()

	stats := make(map[string]graph.PairStats)
	for rows.Next() {
		var fromID, toID, anchorsJSON string
		var confidence float64
		if err := rows.Scan(&fromID, &toID, &confidence, &anchorsJSON); err != nil {
			return nil, fmt.Errorf("scanning pair stats: %w", err)
		}

		other := fromID
		if other == anchor {
			other = toID
		}
		if !wanted[other] {
			continue
		}

		var anchors []string
		if err := json.Unmarshal([]byte(anchorsJSON), &anchors); err != nil {
			return nil, fmt.Errorf("unmarshaling anchors_seen: %w", err)
		}

		st := stats[other]
		if len(anchors) > st.MaxAnchorCount {
			st.MaxAnchorCount = len(anchors)
		}
		if confidence > st.MaxConfidence {
			st.MaxConfidence = confidence
		}
		stats[other] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pair stats: %w", err)
	}

	return stats, nil
}

// Upsert writes an edge, merging with any existing edge of the same id. The
// read and write happen inside one immediate transaction, so the merge is
// atomic under concurrent workers.
func (s *Store) Upsert(ctx context.Context, e graph.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectEdge+` WHERE id = ?`, e.ID)
	existing, err := scanEdge(row.Scan)

	switch err {
	case nil:
		e = edges.Merge(*existing, e)
	case sql.ErrNoRows:
		// First write wins creation provenance.
	default:
		return fmt.Errorf("reading existing edge %s: %w", e.ID, err)
	}

	anchorsJSON, err := json.Marshal(e.AnchorsSeen)
	if err != nil {
		return fmt.Errorf("marshaling anchors_seen for edge %s: %w", e.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO edges (
			id, edge_type, from_id, to_id, confidence, anchors_seen, status,
			created_at, last_reinforced_at,
			created_under_anchor_id, created_in_job_id, created_kind
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			confidence = excluded.confidence,
			anchors_seen = excluded.anchors_seen,
			status = excluded.status,
			last_reinforced_at = excluded.last_reinforced_at`,
		e.ID, string(e.Type), e.FromID, e.ToID, e.Confidence,
		string(anchorsJSON), string(e.Status),
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
		e.LastReinforcedAt.UTC().Format(time.RFC3339Nano),
		e.CreatedUnderAnchorID, e.CreatedInJobID, string(e.CreatedKind),
	)
	if err != nil {
		return fmt.Errorf("upserting edge %s: %w", e.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectEdge = `
	SELECT id, edge_type, from_id, to_id, confidence, anchors_seen, status,
		created_at, last_reinforced_at,
		created_under_anchor_id, created_in_job_id, created_kind
	FROM edges`

func scanEdge(scan func(...any) error) (*graph.Edge, error) {
	var (
		e           graph.Edge
		edgeType    string
		anchorsJSON string
		status      string
		createdAt   string
		reinforced  string
		createdKind string
	)

	err := scan(&e.ID, &edgeType, &e.FromID, &e.ToID, &e.Confidence,
		&anchorsJSON, &status, &createdAt, &reinforced,
		&e.CreatedUnderAnchorID, &e.CreatedInJobID, &createdKind)
	if err != nil {
		return nil, err
	}

	e.Type = graph.EdgeType(edgeType)
	e.Status = graph.Status(status)
	e.CreatedKind = graph.CreatedKind(createdKind)

	if err := json.Unmarshal([]byte(anchorsJSON), &e.AnchorsSeen); err != nil {
		return nil, fmt.Errorf("unmarshaling anchors_seen: %w", err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if e.LastReinforcedAt, err = time.Parse(time.RFC3339Nano, reinforced); err != nil {
		return nil, fmt.Errorf("parsing last_reinforced_at: %w", err)
	}

	return &e, nil
}

var _ edges.Store = (*Store)(nil)
