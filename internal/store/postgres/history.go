// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package postgres provides a HistoryLog on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/sigil-dev/ragd/internal/store"
)

func init() {
	store.RegisterHistoryBackend("postgres", func(ctx context.Context, cfg store.Config) (store.HistoryLog, error) {
		hl, err := NewHistoryLog(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("creating history log: %w", err)
		}
		return hl, nil
	})
}

// Compile-time interface check.
var _ store.HistoryLog = (*HistoryLog)(nil)

// HistoryLog implements store.HistoryLog on a chat_history table. The
// SERIAL id gives every exchange a distinct increasing id.
type HistoryLog struct {
	db *sql.DB
}

// NewHistoryLog connects to dsn and creates the chat_history table if needed.
func NewHistoryLog(ctx context.Context, dsn string) (*HistoryLog, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty postgres dsn", store.ErrInvalidInput)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	hl, err := NewHistoryLogWithDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return hl, nil
}

// NewHistoryLogWithDB wraps an open connection pool and runs the migration.
// The HistoryLog takes ownership of db.
func NewHistoryLogWithDB(ctx context.Context, db *sql.DB) (*HistoryLog, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS chat_history (
	id         SERIAL PRIMARY KEY,
	query      TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("migrating chat_history table: %w", err)
	}

	return &HistoryLog{db: db}, nil
}

// Append inserts an exchange and returns it with the server-assigned id
// and timestamp.
func (h *HistoryLog) Append(ctx context.Context, query, response string) (*store.ChatRecord, error) {
	rec := &store.ChatRecord{Query: query, Response: response}

	const q = `INSERT INTO chat_history (query, response) VALUES ($1, $2) RETURNING id, created_at`
	if err := h.db.QueryRowContext(ctx, q, query, response).Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("appending chat record: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (h *HistoryLog) Recent(ctx context.Context, limit int) ([]*store.ChatRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", store.ErrInvalidInput, limit)
	}

	const q = `SELECT id, query, response, created_at FROM chat_history ORDER BY id DESC LIMIT $1`
	rows, err := h.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*store.ChatRecord
	for rows.Next() {
		var rec store.ChatRecord
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Response, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat record: %w", err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat history: %w", err)
	}

	return records, nil
}

// Close closes the connection pool.
func (h *HistoryLog) Close() error {
	return h.db.Close()
}
