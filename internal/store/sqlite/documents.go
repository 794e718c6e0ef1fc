// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"

	"github.com/sigil-dev/ragd/internal/store"
)

// Compile-time interface check.
var _ store.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements store.DocumentStore backed by SQLite.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore opens (or creates) the documents database at dbPath.
func NewDocumentStore(dbPath string) (*DocumentStore, error) {
	db, err := openDB(dbPath, migrateDocuments)
	if err != nil {
		return nil, err
	}
	return &DocumentStore{db: db}, nil
}

func migrateDocuments(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	rowid      INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT UNIQUE NOT NULL,
	index_id   INTEGER NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	text       TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	created_at TEXT NOT NULL
);`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("migrating documents table: %w", err)
	}
	return nil
}

// Insert stores doc and returns its id, generating a UUID when doc.ID is empty.
func (d *DocumentStore) Insert(ctx context.Context, doc *store.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: nil document", store.ErrInvalidInput)
	}

	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	blob, err := sqlite_vec.SerializeFloat32(doc.Vector)
	if err != nil {
		return "", fmt.Errorf("serializing embedding: %w", err)
	}

	const q = `INSERT INTO documents (id, index_id, title, source, text, embedding, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := d.db.ExecContext(ctx, q, id, doc.IndexID, doc.Title, doc.Source, doc.Text, blob, formatTime(createdAt)); err != nil {
		return "", fmt.Errorf("inserting document %s: %w", id, err)
	}
	return id, nil
}

// List returns documents in insertion order. Vectors are not loaded.
func (d *DocumentStore) List(ctx context.Context, opts store.ListOpts) ([]*store.Document, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}

	const q = `SELECT id, index_id, title, source, text, created_at
FROM documents ORDER BY rowid ASC LIMIT ? OFFSET ?`

	rows, err := d.db.QueryContext(ctx, q, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*store.Document
	for rows.Next() {
		var (
			doc       store.Document
			createdAt string
		)
		if err := rows.Scan(&doc.ID, &doc.IndexID, &doc.Title, &doc.Source, &doc.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.CreatedAt = parseTime(createdAt)
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Count returns the number of stored documents.
func (d *DocumentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (d *DocumentStore) Close() error {
	return d.db.Close()
}
