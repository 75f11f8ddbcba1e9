// Package roster manages the authorized-user master list and applies the
// authorization gate to ingested tables.
package roster

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"factuboard/internal/domain"
)

// Repo is the SQLite-backed roster repository.
type Repo struct {
	db *sql.DB
}

// NewRepo creates a roster repository on the given write pool.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

var _ domain.RosterRepository = (*Repo)(nil)

// All returns the stored roster keyed by normalized document ID.
func (r *Repo) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT document_id, full_name FROM roster`)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string]string)
	for rows.Next() {
		var doc, name string
		if err := rows.Scan(&doc, &name); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		out[doc] = name
	}
	return out, rows.Err()
}

// Replace swaps the stored roster for the given users in one transaction.
// Document IDs and names are normalized (trim, uppercase) before storage;
// duplicate documents keep the first occurrence.
func (r *Repo) Replace(ctx context.Context, users []domain.AuthorizedUser) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM roster`); err != nil {
		return fmt.Errorf("clear roster: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO roster (document_id, full_name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare roster insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for _, u := range users {
		doc := Normalize(u.DocumentID)
		name := Normalize(u.FullName)
		if doc == "" || name == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, doc, name); err != nil {
			return fmt.Errorf("insert roster entry %q: %w", doc, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of roster entries.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roster`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count roster: %w", err)
	}
	return n, nil
}

// Normalize canonicalizes a roster value: trim and uppercase, matching how
// identifiers in uploads are normalized before the gate.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
