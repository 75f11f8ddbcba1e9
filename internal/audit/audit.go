// Package audit records and serves the ingestion audit trail.
package audit

import (
	"context"
	"database/sql"
	"fmt"

	"factuboard/internal/domain"
)

// Repo is the SQLite-backed audit repository.
type Repo struct {
	db *sql.DB
}

// NewRepo creates an audit repository on the given write pool.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

var _ domain.AuditRepository = (*Repo)(nil)

// Insert records one ingestion attempt.
func (r *Repo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingestion_audit (id, actor, module, source_file, status, detail, rows_read, rows_dropped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Actor, e.Module, e.SourceFile, e.Status, e.Detail, e.RowsRead, e.RowsDropped)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (r *Repo) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor, module, source_file, status, detail, rows_read, rows_dropped, created_at
		FROM ingestion_audit
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Module, &e.SourceFile, &e.Status,
			&e.Detail, &e.RowsRead, &e.RowsDropped, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
