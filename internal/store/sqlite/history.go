// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sigil-dev/ragd/internal/store"
)

// Compile-time interface check.
var _ store.HistoryLog = (*HistoryLog)(nil)

// HistoryLog implements store.HistoryLog backed by SQLite.
type HistoryLog struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryLog opens (or creates) the history database at dbPath.
func NewHistoryLog(dbPath string) (*HistoryLog, error) {
	db, err := openDB(dbPath, migrateHistory)
	if err != nil {
		return nil, err
	}
	return &HistoryLog{db: db, now: time.Now}, nil
}

func migrateHistory(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS chat_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	query      TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at TEXT NOT NULL
);`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("migrating chat_history table: %w", err)
	}
	return nil
}

// Append records an exchange; SQLite assigns the id.
func (h *HistoryLog) Append(ctx context.Context, query, response string) (*store.ChatRecord, error) {
	rec := &store.ChatRecord{Query: query, Response: response, CreatedAt: h.now().UTC()}

	res, err := h.db.ExecContext(ctx,
		`INSERT INTO chat_history (query, response, created_at) VALUES (?, ?, ?)`,
		query, response, formatTime(rec.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("appending chat record: %w", err)
	}

	rec.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading chat record id: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (h *HistoryLog) Recent(ctx context.Context, limit int) ([]*store.ChatRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", store.ErrInvalidInput, limit)
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT id, query, response, created_at FROM chat_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*store.ChatRecord
	for rows.Next() {
		var (
			rec       store.ChatRecord
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Response, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chat record: %w", err)
		}
		rec.CreatedAt = parseTime(createdAt)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat history: %w", err)
	}

	return records, nil
}

// Close closes the underlying database connection.
func (h *HistoryLog) Close() error {
	return h.db.Close()
}
