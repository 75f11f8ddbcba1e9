// Package inbox ingests periodic spreadsheets dropped into a watched
// directory on a cron schedule.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"factuboard/internal/dataset"
	"factuboard/internal/domain"
)

// Actor recorded in the audit trail for scheduled ingestions.
const Actor = "inbox"

// Scanner scans a drop directory for files named <module>*.csv or
// <module>*.xlsx, runs each through the ingestion pipeline, and moves it
// to processed/ or failed/. A failed file never blocks later ones.
type Scanner struct {
	dir    string
	loader *dataset.Loader
	logger *slog.Logger
	cron   *cron.Cron
}

// NewScanner creates a Scanner over the drop directory.
func NewScanner(dir string, loader *dataset.Loader, logger *slog.Logger) *Scanner {
	return &Scanner{dir: dir, loader: loader, logger: logger, cron: cron.New()}
}

// Start schedules recurring scans. The schedule accepts standard cron
// specs and descriptors like "@every 5m".
func (s *Scanner) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.ScanOnce(context.Background()); err != nil {
			s.logger.Error("inbox scan failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule inbox scan %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("inbox scanner started", "dir", s.dir, "schedule", schedule)
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scanner) Stop() {
	s.cron.Stop()
	s.logger.Info("inbox scanner stopped")
}

// ScanOnce processes every recognizable file currently in the directory.
func (s *Scanner) ScanOnce(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read inbox dir %s: %w", s.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		module, ok := moduleFor(entry.Name())
		if !ok {
			continue
		}
		s.processFile(ctx, module, entry.Name())
	}
	return nil
}

func (s *Scanner) processFile(ctx context.Context, module, name string) {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path) //nolint:gosec // path is confined to the inbox dir
	if err != nil {
		s.logger.Error("open inbox file", "file", name, "error", err)
		return
	}

	report, err := s.loader.Ingest(ctx, Actor, module, name, f)
	_ = f.Close()

	if err != nil {
		s.logger.Error("inbox ingestion failed", "file", name, "module", module, "error", err)
		s.archive(path, "failed")
		return
	}

	s.logger.Info("inbox ingestion committed",
		"file", name, "module", module,
		"rows_read", report.RowsRead, "rows_committed", report.RowsCommitted)
	s.archive(path, "processed")
}

// archive moves a handled file into a subdirectory, prefixing a timestamp
// so repeated drops of the same filename never collide.
func (s *Scanner) archive(path, subdir string) {
	dest := filepath.Join(s.dir, subdir)
	if err := os.MkdirAll(dest, 0o750); err != nil {
		s.logger.Error("create archive dir", "dir", dest, "error", err)
		return
	}
	name := time.Now().UTC().Format("20060102T150405") + "_" + filepath.Base(path)
	if err := os.Rename(path, filepath.Join(dest, name)); err != nil {
		s.logger.Error("archive inbox file", "file", path, "error", err)
	}
}

// moduleFor matches a filename to its module by prefix.
func moduleFor(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".csv" && ext != ".xlsx" && ext != ".xlsm" {
		return "", false
	}
	base := strings.ToLower(name)
	for _, module := range domain.ModuleNames {
		if strings.HasPrefix(base, module) {
			return module, true
		}
	}
	return "", false
}
