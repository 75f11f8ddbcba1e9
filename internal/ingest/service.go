package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"factuboard/internal/domain"
	"factuboard/internal/roster"
	"factuboard/internal/schema"
)

// Service runs the ingestion pipeline for one upload: parse, validate,
// apply the status whitelist, drop unauthorized rows, cross-walk documents
// to roster names, and persist the result. A failed run leaves the prior
// cache entry untouched.
type Service struct {
	schemas    *schema.Registry
	rosterRepo domain.RosterRepository
	cache      domain.CacheStore
	audit      domain.AuditRepository
	logger     *slog.Logger
}

// NewService creates an ingestion service.
func NewService(
	schemas *schema.Registry,
	rosterRepo domain.RosterRepository,
	cache domain.CacheStore,
	audit domain.AuditRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		schemas:    schemas,
		rosterRepo: rosterRepo,
		cache:      cache,
		audit:      audit,
		logger:     logger,
	}
}

// Run ingests one upload for a module and returns the committed table plus
// a full accounting of every row. Errors from lower layers surface
// unchanged in type, annotated with the module name.
func (s *Service) Run(ctx context.Context, actor, module, filename string, upload io.Reader) (*domain.Table, *domain.IngestionReport, error) {
	ms, err := s.schemas.Get(module)
	if err != nil {
		return nil, nil, err
	}

	source := sourceName(filename)
	raw, err := ParseUpload(filename, upload, ms.HeaderMarker)
	if err != nil {
		s.logOutcome(ctx, actor, module, source, domain.AuditStatusRejected, err.Error(), 0, 0)
		return nil, nil, fmt.Errorf("module %s: %w", module, err)
	}

	report := &domain.IngestionReport{
		JobID:      uuid.New().String(),
		Module:     module,
		SourceFile: source,
		RowsRead:   len(raw.Rows),
	}

	table, rowErrs, err := schema.Validate(raw, ms)
	if err != nil {
		s.logOutcome(ctx, actor, module, source, domain.AuditStatusRejected, err.Error(), report.RowsRead, report.RowsRead)
		return nil, nil, fmt.Errorf("module %s: %w", module, err)
	}
	report.RowErrors = rowErrs
	report.RowsRejected = len(rowErrs)

	table, report.RowsDroppedStatus = applyStatusWhitelist(table, ms.ValidStates)

	rosterMap, err := s.rosterRepo.All(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("module %s: load roster: %w", module, err)
	}
	table, report.RowsDroppedRoster, err = roster.FilterAuthorized(table, rosterMap)
	if err != nil {
		s.logOutcome(ctx, actor, module, source, domain.AuditStatusRejected, err.Error(), report.RowsRead, report.RowsRead)
		return nil, nil, fmt.Errorf("module %s: %w", module, err)
	}
	roster.ApplyNames(table, rosterMap)

	if _, err := s.cache.Save(ctx, table); err != nil {
		s.logOutcome(ctx, actor, module, source, domain.AuditStatusRejected, err.Error(), report.RowsRead, report.RowsRead)
		return nil, nil, fmt.Errorf("module %s: %w", module, err)
	}

	report.RowsCommitted = len(table.Rows)
	report.CompletedAt = time.Now().UTC()

	dropped := report.RowsRejected + report.RowsDroppedStatus + report.RowsDroppedRoster
	s.logOutcome(ctx, actor, module, source, domain.AuditStatusCommitted,
		fmt.Sprintf("committed %d of %d row(s)", report.RowsCommitted, report.RowsRead),
		report.RowsRead, dropped)
	s.logger.Info("ingestion committed",
		"module", module,
		"source", source,
		"rows_read", report.RowsRead,
		"rows_committed", report.RowsCommitted,
		"rows_rejected", report.RowsRejected,
		"dropped_status", report.RowsDroppedStatus,
		"dropped_roster", report.RowsDroppedRoster,
	)

	return table, report, nil
}

// ReplaceRoster ingests a roster upload, replacing the stored master list.
func (s *Service) ReplaceRoster(ctx context.Context, actor, filename string, upload io.Reader) (int, error) {
	raw, err := ParseUpload(filename, upload, roster.ColRosterDocument)
	if err != nil {
		return 0, err
	}
	users, err := roster.FromRaw(raw)
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, domain.ErrValidation("roster upload %q contains no usable entries", sourceName(filename))
	}
	if err := s.rosterRepo.Replace(ctx, users); err != nil {
		return 0, fmt.Errorf("replace roster: %w", err)
	}
	s.logger.Info("roster replaced", "entries", len(users), "source", sourceName(filename))
	return len(users), nil
}

// applyStatusWhitelist drops rows whose ESTADO is outside the module's
// valid set. Modules without a whitelist pass through untouched.
func applyStatusWhitelist(table *domain.Table, validStates []string) (*domain.Table, int) {
	if len(validStates) == 0 {
		return table, 0
	}
	statusIdx := table.ColumnIndex(domain.ColStatus)
	if statusIdx < 0 {
		return table, 0
	}

	valid := make(map[string]struct{}, len(validStates))
	for _, st := range validStates {
		valid[st] = struct{}{}
	}

	kept := &domain.Table{Module: table.Module, Columns: table.Columns}
	dropped := 0
	for _, row := range table.Rows {
		if _, ok := valid[row[statusIdx]]; ok {
			kept.Rows = append(kept.Rows, row)
		} else {
			dropped++
		}
	}
	return kept, dropped
}

func (s *Service) logOutcome(ctx context.Context, actor, module, source, status, detail string, rowsRead, rowsDropped int) {
	if s.audit == nil {
		return
	}
	err := s.audit.Insert(ctx, &domain.AuditEntry{
		ID:          uuid.New().String(),
		Actor:       actor,
		Module:      module,
		SourceFile:  source,
		Status:      status,
		Detail:      detail,
		RowsRead:    rowsRead,
		RowsDropped: rowsDropped,
	})
	if err != nil {
		s.logger.Warn("audit insert failed", "module", module, "error", err)
	}
}
