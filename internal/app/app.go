// Package app provides application-level wiring and dependency injection
// for the factuboard service.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"factuboard/internal/audit"
	"factuboard/internal/cache"
	"factuboard/internal/config"
	"factuboard/internal/dataset"
	"factuboard/internal/inbox"
	"factuboard/internal/ingest"
	"factuboard/internal/roster"
	"factuboard/internal/schema"
)

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// database handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	DuckDB  *sql.DB
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App holds the fully-wired application: the dataset loader, the ingestion
// service, the repositories the API handler needs, and the optional inbox
// scanner (nil when INBOX_DIR is unset).
type App struct {
	Schemas    *schema.Registry
	RosterRepo *roster.Repo
	AuditRepo  *audit.Repo
	Cache      *cache.Store
	Ingestor   *ingest.Service
	Loader     *dataset.Loader
	Inbox      *inbox.Scanner // nil when inbox ingestion is disabled
}

// New wires all repositories and services from the provided deps.
func New(deps Deps) (*App, error) {
	schemas, err := schema.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("load module schemas: %w", err)
	}

	rosterRepo := roster.NewRepo(deps.WriteDB)
	auditRepo := audit.NewRepo(deps.WriteDB)

	store, err := cache.NewStore(deps.Cfg.DataDir, deps.DuckDB, deps.WriteDB,
		deps.Logger.With("component", "cache"))
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	ingestor := ingest.NewService(schemas, rosterRepo, store, auditRepo,
		deps.Logger.With("component", "ingest"))
	loader := dataset.NewLoader(store, ingestor, deps.Logger.With("component", "dataset"))

	a := &App{
		Schemas:    schemas,
		RosterRepo: rosterRepo,
		AuditRepo:  auditRepo,
		Cache:      store,
		Ingestor:   ingestor,
		Loader:     loader,
	}
	if deps.Cfg.InboxEnabled() {
		a.Inbox = inbox.NewScanner(deps.Cfg.InboxDir, loader,
			deps.Logger.With("component", "inbox"))
	}
	return a, nil
}
