// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

package approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	agerr "github.com/milkesa2013/Agentic-Infrastructure/pkg/errors"
)

const approvalTable = "approvals"

// SQLiteStore persists approvals in a SQLite database so pending reviews
// survive process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an existing database handle and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, agerr.New(agerr.CodeInvalidInput, "db is nil", nil)
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		trace_id TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		issues_json TEXT NOT NULL DEFAULT '[]',
		scores_json TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	)`, approvalTable))
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, record Record) (*Record, error) {
	if err := normalize(&record); err != nil {
		return nil, err
	}
	issuesJSON, err := json.Marshal(record.Issues)
	if err != nil {
		return nil, err
	}
	scoresJSON, err := json.Marshal(record.Scores)
	if err != nil {
		return nil, err
	}
	expiresAt := int64(0)
	if !record.ExpiresAt.IsZero() {
		expiresAt = record.ExpiresAt.UnixMilli()
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, task_id, trace_id, kind, status, reason, issues_json, scores_json, created_at, updated_at, expires_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", approvalTable),
		record.ID, record.TaskID, record.TraceID, string(record.Kind), string(record.Status), record.Reason,
		string(issuesJSON), string(scoresJSON),
		record.CreatedAt.UnixMilli(), record.UpdatedAt.UnixMilli(), expiresAt)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, record.ID)
}

const approvalColumns = "id, task_id, trace_id, kind, status, reason, issues_json, scores_json, created_at, updated_at, expires_at"

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", approvalColumns, approvalTable), id)
	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, notFound(id)
	}
	return record, err
}

func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]*Record, error) {
	where := "1=1"
	args := make([]any, 0)
	if filter.TaskID != "" {
		where += " AND task_id = ?"
		args = append(args, filter.TaskID)
	}
	if filter.Kind != "" {
		where += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if !filter.ExpiringBefore.IsZero() {
		where += " AND expires_at > 0 AND expires_at <= ?"
		args = append(args, filter.ExpiringBefore.UnixMilli())
	}
	limit := ""
	if filter.Limit > 0 {
		limit = fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY updated_at DESC%s", approvalColumns, approvalTable, where, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status Status, reason string) (*Record, error) {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET status = ?, reason = ?, updated_at = ? WHERE id = ?", approvalTable),
		string(status), reason, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, notFound(id)
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) ExpireApprovals(ctx context.Context) (int, error) {
	now := time.Now().UTC().UnixMilli()
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET status = ?, updated_at = ? WHERE status = ? AND expires_at > 0 AND expires_at <= ?", approvalTable),
		string(StatusExpired), now, string(StatusPending), now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record      Record
		kind        string
		status      string
		issuesJSON  string
		scoresJSON  string
		createdAtMs int64
		updatedAtMs int64
		expiresAtMs int64
	)
	if err := row.Scan(&record.ID, &record.TaskID, &record.TraceID, &kind, &status, &record.Reason,
		&issuesJSON, &scoresJSON, &createdAtMs, &updatedAtMs, &expiresAtMs); err != nil {
		return nil, err
	}
	record.Kind = Kind(kind)
	record.Status = Status(status)
	record.CreatedAt = time.UnixMilli(createdAtMs).UTC()
	record.UpdatedAt = time.UnixMilli(updatedAtMs).UTC()
	if expiresAtMs > 0 {
		record.ExpiresAt = time.UnixMilli(expiresAtMs).UTC()
	}
	if err := json.Unmarshal([]byte(issuesJSON), &record.Issues); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(scoresJSON), &record.Scores); err != nil {
		return nil, err
	}
	return &record, nil
}
