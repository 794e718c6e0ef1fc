// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/sigil-dev/ragd/internal/store"
	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements store.VectorIndex on a plain SQLite table scanned
// with the sqlite-vec distance functions. The scan is exact; ties on
// distance fall back to the AUTOINCREMENT id, i.e. insertion order.
type VectorIndex struct {
	db         *sql.DB
	dimensions int
	distance   string
}

// NewVectorIndex opens (or creates) the index database at dbPath. Reopening
// an index with different dimensions or metric fails.
func NewVectorIndex(dbPath string, dimensions int, metric store.Metric) (*VectorIndex, error) {
	var distance string
	switch metric {
	case store.MetricCosine, "":
		metric, distance = store.MetricCosine, "vec_distance_cosine"
	case store.MetricL2:
		distance = "vec_distance_l2"
	default:
		return nil, fmt.Errorf("%w: unsupported metric %q", store.ErrInvalidInput, metric)
	}

	db, err := openDB(dbPath, func(db *sql.DB) error {
		return migrateIndex(db, dimensions, metric)
	})
	if err != nil {
		return nil, err
	}

	return &VectorIndex{db: db, dimensions: dimensions, distance: distance}, nil
}

func migrateIndex(db *sql.DB, dimensions int, metric store.Metric) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS index_entries (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	text      TEXT NOT NULL,
	embedding BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("migrating index tables: %w", err)
	}

	if err := pinMeta(db, "dimensions", strconv.Itoa(dimensions)); err != nil {
		return err
	}
	return pinMeta(db, "metric", string(metric))
}

// pinMeta records value under key on first open and rejects a different
// value on later opens.
func pinMeta(db *sql.DB, key, value string) error {
	if _, err := db.Exec(`INSERT OR IGNORE INTO index_meta(key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("recording index %s: %w", key, err)
	}

	var stored string
	if err := db.QueryRow(`SELECT value FROM index_meta WHERE key = ?`, key).Scan(&stored); err != nil {
		return fmt.Errorf("reading index %s: %w", key, err)
	}
	if stored != value {
		return ragerr.Errorf(ragerr.CodeIndexDimensionInvalid,
			"index was created with %s %s, configured %s", key, stored, value)
	}
	return nil
}

// Add appends an entry. The returned id is assigned by SQLite.
func (v *VectorIndex) Add(ctx context.Context, text string, vector []float32) (int64, error) {
	if len(vector) != v.dimensions {
		return 0, fmt.Errorf("%w: got %d, want %d", store.ErrDimensionMismatch, len(vector), v.dimensions)
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return 0, fmt.Errorf("serializing embedding: %w", err)
	}

	res, err := v.db.ExecContext(ctx, `INSERT INTO index_entries(text, embedding) VALUES (?, ?)`, text, blob)
	if err != nil {
		return 0, fmt.Errorf("inserting index entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading index entry id: %w", err)
	}
	return id, nil
}

// Query returns the texts of the k nearest entries.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, k int) ([]string, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", store.ErrInvalidInput, k)
	}
	if len(vector) != v.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", store.ErrDimensionMismatch, len(vector), v.dimensions)
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("serializing query vector: %w", err)
	}

	// v.distance is one of two fixed function names chosen in NewVectorIndex.
	q := `SELECT text FROM index_entries ORDER BY ` + v.distance + `(embedding, ?) ASC, id ASC LIMIT ?`

	rows, err := v.db.QueryContext(ctx, q, blob, k)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer func() { _ = rows.Close() }()

	texts := make([]string, 0, k)
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scanning index entry: %w", err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index entries: %w", err)
	}

	return texts, nil
}

// Size returns the number of entries.
func (v *VectorIndex) Size(ctx context.Context) (int, error) {
	var n int
	if err := v.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM index_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting index entries: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (v *VectorIndex) Close() error {
	return v.db.Close()
}
