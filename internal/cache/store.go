// Package cache persists validated tables as Parquet files, one per
// module, through an embedded DuckDB engine.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"factuboard/internal/domain"
)

// Store writes and reads per-module Parquet cache files. A save fully
// replaces the prior entry: the table is staged in DuckDB, copied to a
// temporary file, and renamed over the live one, so readers never observe
// a truncated or half-written cache file.
type Store struct {
	dir    string
	duck   *sql.DB // embedded DuckDB used for Parquet I/O
	metaDB *sql.DB // SQLite write pool holding the module_cache index
	logger *slog.Logger

	// mu serializes use of the shared staging table. File-level atomicity
	// comes from the rename, not from this lock.
	mu sync.Mutex
}

// NewStore creates the cache directory if needed and returns a Store.
func NewStore(dir string, duck, metaDB *sql.DB, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &Store{dir: dir, duck: duck, metaDB: metaDB, logger: logger}, nil
}

var _ domain.CacheStore = (*Store)(nil)

// Path returns the live cache file path for a module.
func (s *Store) Path(module string) string {
	return filepath.Join(s.dir, module+".parquet")
}

// Save persists the table, replacing any prior entry for the module
// atomically. On failure the prior cache file is left untouched and the
// error is wrapped as an IngestionIOError.
func (s *Store) Save(ctx context.Context, table *domain.Table) (*domain.CacheMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stage := "cache_stage_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := s.createStage(ctx, stage, table); err != nil {
		return nil, &domain.IngestionIOError{Module: table.Module, Err: err}
	}
	defer func() {
		_, _ = s.duck.ExecContext(ctx, "DROP TABLE IF EXISTS "+stage)
	}()

	tmp := s.Path(table.Module) + ".tmp-" + uuid.New().String()
	copyStmt := fmt.Sprintf("COPY %s TO %s (FORMAT parquet, COMPRESSION zstd)",
		stage, quoteString(tmp))
	if _, err := s.duck.ExecContext(ctx, copyStmt); err != nil {
		_ = os.Remove(tmp)
		return nil, &domain.IngestionIOError{Module: table.Module, Err: fmt.Errorf("write parquet: %w", err)}
	}

	if err := os.Rename(tmp, s.Path(table.Module)); err != nil {
		_ = os.Remove(tmp)
		return nil, &domain.IngestionIOError{Module: table.Module, Err: fmt.Errorf("commit parquet: %w", err)}
	}

	meta := &domain.CacheMeta{
		Module:      table.Module,
		RowCount:    len(table.Rows),
		LastUpdated: time.Now().UTC(),
	}
	if err := s.upsertMeta(ctx, meta); err != nil {
		// The Parquet file is already committed; a stale index row is
		// repaired on the next save.
		s.logger.Warn("cache index update failed", "module", table.Module, "error", err)
	}
	return meta, nil
}

// Load reads the cached table for a module. A missing file returns a
// CacheMissError; an unreadable file is treated the same way with a logged
// warning, never as a crash.
func (s *Store) Load(ctx context.Context, module string) (*domain.Table, *domain.CacheMeta, error) {
	path := s.Path(module)
	if _, err := os.Stat(path); err != nil {
		return nil, nil, domain.ErrCacheMiss(module)
	}

	table, err := s.readParquet(ctx, module, path)
	if err != nil {
		s.logger.Warn("cache file unreadable, treating as miss",
			"module", module, "path", path, "error", err)
		return nil, nil, domain.ErrCacheMiss(module)
	}

	meta, err := s.Meta(ctx, module)
	if err != nil {
		meta = &domain.CacheMeta{Module: module, RowCount: len(table.Rows)}
		if fi, statErr := os.Stat(path); statErr == nil {
			meta.LastUpdated = fi.ModTime().UTC()
		}
	}
	return table, meta, nil
}

// Meta reads the cache index entry for a module.
func (s *Store) Meta(ctx context.Context, module string) (*domain.CacheMeta, error) {
	meta := &domain.CacheMeta{Module: module}
	err := s.metaDB.QueryRowContext(ctx,
		`SELECT row_count, last_updated FROM module_cache WHERE module = ?`, module,
	).Scan(&meta.RowCount, &meta.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCacheMiss(module)
	}
	if err != nil {
		return nil, fmt.Errorf("read cache index for %q: %w", module, err)
	}
	return meta, nil
}

// createStage builds and fills the staging table with typed columns.
func (s *Store) createStage(ctx context.Context, stage string, table *domain.Table) error {
	cols := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = quoteIdent(c.Name) + " " + duckType(c.Type)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", stage, strings.Join(cols, ", "))
	if _, err := s.duck.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}

	tx, err := s.duck.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin staging insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(table.Columns)), ", ") + ")"
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+stage+" VALUES "+placeholders)
	if err != nil {
		return fmt.Errorf("prepare staging insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	args := make([]any, len(table.Columns))
	for _, row := range table.Rows {
		for i := range args {
			args[i] = row[i]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("stage row: %w", err)
		}
	}
	return tx.Commit()
}

// readParquet loads a Parquet file back into a record table. Every column
// is cast to VARCHAR on read so cells come back in the exact canonical
// string form they were saved with.
func (s *Store) readParquet(ctx context.Context, module, path string) (*domain.Table, error) {
	probe := fmt.Sprintf("SELECT * FROM read_parquet(%s) LIMIT 0", quoteString(path))
	rows, err := s.duck.QueryContext(ctx, probe)
	if err != nil {
		return nil, fmt.Errorf("probe parquet: %w", err)
	}
	colTypes, err := rows.ColumnTypes()
	closeErr := rows.Close()
	if err != nil {
		return nil, fmt.Errorf("parquet column types: %w", err)
	}
	if closeErr != nil {
		return nil, closeErr
	}

	table := &domain.Table{Module: module, Columns: make([]domain.Column, len(colTypes))}
	selects := make([]string, len(colTypes))
	for i, ct := range colTypes {
		table.Columns[i] = domain.Column{Name: ct.Name(), Type: semanticType(ct.DatabaseTypeName())}
		selects[i] = fmt.Sprintf("CAST(%s AS VARCHAR)", quoteIdent(ct.Name()))
	}

	query := fmt.Sprintf("SELECT %s FROM read_parquet(%s)",
		strings.Join(selects, ", "), quoteString(path))
	data, err := s.duck.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	defer data.Close() //nolint:errcheck

	scan := make([]sql.NullString, len(colTypes))
	ptrs := make([]any, len(colTypes))
	for i := range scan {
		ptrs[i] = &scan[i]
	}
	for data.Next() {
		if err := data.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan parquet row: %w", err)
		}
		row := make(domain.Row, len(scan))
		for i, v := range scan {
			row[i] = v.String
		}
		table.Rows = append(table.Rows, row)
	}
	return table, data.Err()
}

func (s *Store) upsertMeta(ctx context.Context, meta *domain.CacheMeta) error {
	_, err := s.metaDB.ExecContext(ctx, `
		INSERT INTO module_cache (module, row_count, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(module) DO UPDATE SET
			row_count = excluded.row_count,
			last_updated = excluded.last_updated`,
		meta.Module, meta.RowCount, meta.LastUpdated)
	return err
}

// duckType maps a semantic column type to its DuckDB storage type.
func duckType(t domain.ColumnType) string {
	switch t {
	case domain.TypeDate:
		return "DATE"
	case domain.TypeMoney:
		return "DECIMAL(18,2)"
	default:
		return "VARCHAR"
	}
}

// semanticType maps a DuckDB column type name back to the semantic type.
func semanticType(dbType string) domain.ColumnType {
	switch {
	case dbType == "DATE":
		return domain.TypeDate
	case strings.HasPrefix(dbType, "DECIMAL"):
		return domain.TypeMoney
	default:
		return domain.TypeText
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
