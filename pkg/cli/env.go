package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"

	"factuboard/internal/app"
	"factuboard/internal/config"
	internaldb "factuboard/internal/db"
)

// env is a fully-opened application plus the handles that must be closed
// when the command finishes.
type env struct {
	App *app.App
	Cfg *config.Config

	duckDB  *sql.DB
	writeDB *sql.DB
	readDB  *sql.DB
}

// openEnv loads configuration, opens the DuckDB codec and the SQLite
// metastore, runs migrations, and wires the application. Flags override
// the environment.
func openEnv(opts *rootOptions) (*env, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if *opts.dataDir != "" {
		cfg.DataDir = *opts.dataDir
	}
	if *opts.metaDB != "" {
		cfg.MetaDBPath = *opts.metaDB
	}

	// CLI runs are interactive, so keep the log quiet unless asked.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	duckDB, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 2)
	if err != nil {
		_ = duckDB.Close()
		return nil, err
	}
	if err := internaldb.RunMigrations(writeDB); err != nil {
		_ = duckDB.Close()
		_ = writeDB.Close()
		_ = readDB.Close()
		return nil, err
	}

	a, err := app.New(app.Deps{
		Cfg:     cfg,
		DuckDB:  duckDB,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	if err != nil {
		_ = duckDB.Close()
		_ = writeDB.Close()
		_ = readDB.Close()
		return nil, err
	}

	return &env{App: a, Cfg: cfg, duckDB: duckDB, writeDB: writeDB, readDB: readDB}, nil
}

func (e *env) Close() {
	_ = e.duckDB.Close()
	_ = e.writeDB.Close()
	_ = e.readDB.Close()
}
