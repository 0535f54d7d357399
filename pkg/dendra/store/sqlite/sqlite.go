// Package sqlite persists snapshots in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/dendra/pkg/dendra/internalerr"
	"github.com/cognicore/dendra/pkg/dendra/matrix"
	"github.com/cognicore/dendra/pkg/dendra/store"
	"github.com/cognicore/dendra/pkg/dendra/tree"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and the
// snapshot schema initialized.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	threshold REAL NOT NULL,
	entities INTEGER NOT NULL,
	payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// payload is the JSON-serialized body of a snapshot row. Score cells
// are stored as pointers because NaN has no JSON encoding; nil means
// missing.
type payload struct {
	Labels      []string     `json:"labels"`
	Contents    []string     `json:"contents,omitempty"`
	Steps       []tree.Step  `json:"steps"`
	ScoreLabels []string     `json:"score_labels,omitempty"`
	ScoreCells  [][]*float64 `json:"score_cells,omitempty"`
	TextLabels  []string     `json:"text_labels,omitempty"`
	TextCells   [][]string   `json:"text_cells,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// SaveSnapshot inserts or replaces a snapshot row.
func (s *sqliteStore) SaveSnapshot(ctx context.Context, snap store.Snapshot) error {
	body, err := json.Marshal(payload{
		Labels:      snap.Labels,
		Contents:    snap.Contents,
		Steps:       snap.Steps,
		ScoreLabels: snap.Scores.Labels,
		ScoreCells:  encodeCells(snap.Scores.Cells),
		TextLabels:  snap.Explanations.Labels,
		TextCells:   snap.Explanations.Cells,
		Warnings:    snap.Warnings,
	})
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots (id, created_at, threshold, entities, payload)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	created_at = excluded.created_at,
	threshold = excluded.threshold,
	entities = excluded.entities,
	payload = excluded.payload`,
		snap.ID, snap.CreatedAt.UTC().Format(time.RFC3339Nano),
		snap.Threshold, len(snap.Labels), string(body))
	return err
}

// GetSnapshot implements store.Store.
func (s *sqliteStore) GetSnapshot(ctx context.Context, id string) (store.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, threshold, payload FROM snapshots WHERE id = ?`, id)
	return scanSnapshot(row)
}

// LatestSnapshot returns the newest snapshot, if any.
func (s *sqliteStore) LatestSnapshot(ctx context.Context) (store.Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, threshold, payload FROM snapshots
		 ORDER BY created_at DESC, id DESC LIMIT 1`)
	snap, err := scanSnapshot(row)
	if err == internalerr.ErrSnapshotNotFound {
		return store.Snapshot{}, false, nil
	}
	if err != nil {
		return store.Snapshot{}, false, err
	}
	return snap, true, nil
}

// ListSnapshots returns snapshot infos, newest first.
func (s *sqliteStore) ListSnapshots(ctx context.Context) ([]store.Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, threshold, entities FROM snapshots
		 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []store.Info
	for rows.Next() {
		var info store.Info
		var created string
		if err := rows.Scan(&info.ID, &created, &info.Threshold, &info.Entities); err != nil {
			return nil, err
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("bad created_at for %s: %w", info.ID, err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteSnapshot implements store.Store.
func (s *sqliteStore) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return internalerr.ErrSnapshotNotFound
	}
	return nil
}

func scanSnapshot(row *sql.Row) (store.Snapshot, error) {
	var snap store.Snapshot
	var created, body string
	err := row.Scan(&snap.ID, &created, &snap.Threshold, &body)
	if err == sql.ErrNoRows {
		return store.Snapshot{}, internalerr.ErrSnapshotNotFound
	}
	if err != nil {
		return store.Snapshot{}, err
	}

	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return store.Snapshot{}, fmt.Errorf("bad created_at for %s: %w", snap.ID, err)
	}

	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return store.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	snap.Labels = p.Labels
	snap.Contents = p.Contents
	snap.Steps = p.Steps
	snap.Scores = matrix.Scores{Labels: p.ScoreLabels, Cells: decodeCells(p.ScoreCells)}
	snap.Explanations = matrix.Texts{Labels: p.TextLabels, Cells: p.TextCells}
	snap.Warnings = p.Warnings
	return snap, nil
}

func encodeCells(cells [][]float64) [][]*float64 {
	if cells == nil {
		return nil
	}
	out := make([][]*float64, len(cells))
	for i, row := range cells {
		out[i] = make([]*float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				val := v
				out[i][j] = &val
			}
		}
	}
	return out
}

func decodeCells(cells [][]*float64) [][]float64 {
	if cells == nil {
		return nil
	}
	out := make([][]float64, len(cells))
	for i, row := range cells {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				out[i][j] = math.NaN()
			} else {
				out[i][j] = *v
			}
		}
	}
	return out
}
