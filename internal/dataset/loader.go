// Package dataset orchestrates per-module loading: serve the in-session
// snapshot, fall back to the cache store, or require a fresh upload.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"factuboard/internal/domain"
	"factuboard/internal/ingest"
)

// Loader holds one state machine per module. GetModuleTable is the only
// load-path transition trigger; once a table is returned it stays the
// session's snapshot until an explicit re-ingestion replaces it, even if
// the cache file disappears underneath.
type Loader struct {
	cache    domain.CacheStore
	ingestor *ingest.Service
	logger   *slog.Logger

	mu    sync.RWMutex
	mods  map[string]*moduleState
	loads singleflight.Group // dedups concurrent cache loads per module
}

type moduleState struct {
	state domain.LoadState
	table *domain.Table
	meta  *domain.CacheMeta

	// ingestMu serializes ingestion runs for the module. Independent
	// modules ingest without coordination.
	ingestMu sync.Mutex
}

// ModuleStatus is the externally visible state of one module.
type ModuleStatus struct {
	Module string            `json:"module"`
	State  domain.LoadState  `json:"state"`
	Meta   *domain.CacheMeta `json:"meta,omitempty"`
}

// NewLoader creates a Loader over the cache store and ingestion service.
func NewLoader(cache domain.CacheStore, ingestor *ingest.Service, logger *slog.Logger) *Loader {
	mods := make(map[string]*moduleState, len(domain.ModuleNames))
	for _, name := range domain.ModuleNames {
		mods[name] = &moduleState{state: domain.StateUnloaded}
	}
	return &Loader{cache: cache, ingestor: ingestor, logger: logger, mods: mods}
}

// GetModuleTable returns the module's current snapshot, loading it from
// the cache store on first access. A cache miss surfaces as a
// *domain.CacheMissError: the caller must trigger an ingestion with a
// fresh upload, the loader never fetches from an external source itself.
func (l *Loader) GetModuleTable(ctx context.Context, module string) (*domain.Table, error) {
	ms, err := l.state(module)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	if ms.table != nil && (ms.state == domain.StateReady || ms.state == domain.StateCacheHit) {
		table := ms.table
		l.mu.RUnlock()
		return table, nil
	}
	l.mu.RUnlock()

	_, err, _ = l.loads.Do(module, func() (any, error) {
		return nil, l.loadFromCache(ctx, module, ms)
	})
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return ms.table, nil
}

// Ingest runs the full pipeline on an upload and, on success, replaces the
// module's snapshot. Concurrent ingestion of the same module is
// serialized; the last completed run wins wholesale. A failed run leaves
// both the prior cache entry and the prior snapshot authoritative.
func (l *Loader) Ingest(ctx context.Context, actor, module, filename string, upload io.Reader) (*domain.IngestionReport, error) {
	ms, err := l.state(module)
	if err != nil {
		return nil, err
	}

	ms.ingestMu.Lock()
	defer ms.ingestMu.Unlock()

	prev := l.setIngesting(ms)
	table, report, err := l.ingestor.Run(ctx, actor, module, filename, upload)
	if err != nil {
		l.restoreAfterFailure(ms, prev)
		return nil, err
	}

	l.mu.Lock()
	ms.table = table
	ms.meta = &domain.CacheMeta{Module: module, RowCount: len(table.Rows), LastUpdated: report.CompletedAt}
	ms.state = domain.StateReady
	l.mu.Unlock()

	return report, nil
}

// Status reports the lifecycle state of every module.
func (l *Loader) Status(ctx context.Context) []ModuleStatus {
	out := make([]ModuleStatus, 0, len(domain.ModuleNames))
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, name := range domain.ModuleNames {
		ms := l.mods[name]
		st := ModuleStatus{Module: name, State: ms.state, Meta: ms.meta}
		if ms.state == domain.StateUnloaded {
			// Surface known cache entries for modules not yet touched this
			// session, so operators see what a load would find.
			if meta, err := l.cache.Meta(ctx, name); err == nil {
				st.Meta = meta
			}
		}
		out = append(out, st)
	}
	return out
}

func (l *Loader) state(module string) (*moduleState, error) {
	ms, ok := l.mods[module]
	if !ok {
		return nil, domain.ErrNotFound("unknown module %q", module)
	}
	return ms, nil
}

func (l *Loader) loadFromCache(ctx context.Context, module string, ms *moduleState) error {
	table, meta, err := l.cache.Load(ctx, module)

	l.mu.Lock()
	defer l.mu.Unlock()

	// An ingestion may have completed while we were reading; its snapshot
	// is fresher than what we just loaded.
	if ms.table != nil {
		return nil
	}

	var miss *domain.CacheMissError
	switch {
	case err == nil:
		ms.state = domain.StateCacheHit
		ms.table = table
		ms.meta = meta
		l.logger.Info("module loaded from cache", "module", module, "rows", meta.RowCount)
		return nil
	case errors.As(err, &miss):
		ms.state = domain.StateCacheMiss
		return err
	default:
		ms.state = domain.StateFailed
		return fmt.Errorf("module %s: %w", module, err)
	}
}

func (l *Loader) setIngesting(ms *moduleState) domain.LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := ms.state
	ms.state = domain.StateIngesting
	return prev
}

func (l *Loader) restoreAfterFailure(ms *moduleState, prev domain.LoadState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ms.table != nil {
		// The previous snapshot is still good; keep serving it under
		// whichever serving state it had before the attempt.
		ms.state = prev
		return
	}
	if prev == domain.StateUnloaded || prev == domain.StateCacheMiss {
		ms.state = prev
		return
	}
	ms.state = domain.StateFailed
}
