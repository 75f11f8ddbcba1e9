package inbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factuboard/internal/dataset"
	"factuboard/internal/domain"
	"factuboard/internal/ingest"
	"factuboard/internal/schema"
)

type memCache struct{ tables map[string]*domain.Table }

func (m *memCache) Save(_ context.Context, table *domain.Table) (*domain.CacheMeta, error) {
	if m.tables == nil {
		m.tables = make(map[string]*domain.Table)
	}
	m.tables[table.Module] = table
	return &domain.CacheMeta{Module: table.Module, RowCount: len(table.Rows), LastUpdated: time.Now().UTC()}, nil
}
func (m *memCache) Load(_ context.Context, module string) (*domain.Table, *domain.CacheMeta, error) {
	table, ok := m.tables[module]
	if !ok {
		return nil, nil, domain.ErrCacheMiss(module)
	}
	return table, &domain.CacheMeta{Module: module, RowCount: len(table.Rows)}, nil
}
func (m *memCache) Meta(_ context.Context, module string) (*domain.CacheMeta, error) {
	table, ok := m.tables[module]
	if !ok {
		return nil, domain.ErrCacheMiss(module)
	}
	return &domain.CacheMeta{Module: module, RowCount: len(table.Rows)}, nil
}

type memRoster struct{ users map[string]string }

func (m *memRoster) All(context.Context) (map[string]string, error)         { return m.users, nil }
func (m *memRoster) Replace(context.Context, []domain.AuthorizedUser) error { return nil }
func (m *memRoster) Count(context.Context) (int, error)                     { return len(m.users), nil }

func newTestScanner(t *testing.T, dir string, cache *memCache) *Scanner {
	t.Helper()
	schemas, err := schema.NewRegistry()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rosterRepo := &memRoster{users: map[string]string{"123": "ANA PÉREZ"}}
	ingestor := ingest.NewService(schemas, rosterRepo, cache, nil, logger)
	loader := dataset.NewLoader(cache, ingestor, logger)
	return NewScanner(dir, loader, logger)
}

func TestScanOnce_ProcessesAndArchives(t *testing.T) {
	dir := t.TempDir()
	csvData := "ID_LEGALIZACION,USUARIO,FECHA,ESTADO,CONVENIO\n" +
		"L-1,123,2024-01-01,ACTIVA,EPS SURA\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "legalizaciones_enero.csv"), []byte(csvData), 0o600))

	cache := &memCache{}
	s := newTestScanner(t, dir, cache)
	require.NoError(t, s.ScanOnce(context.Background()))

	// ingested into the cache
	require.Contains(t, cache.tables, domain.ModuleLegalizaciones)
	assert.Len(t, cache.tables[domain.ModuleLegalizaciones].Rows, 1)

	// original gone, archived under processed/
	_, err := os.Stat(filepath.Join(dir, "legalizaciones_enero.csv"))
	assert.True(t, os.IsNotExist(err))
	archived, err := os.ReadDir(filepath.Join(dir, "processed"))
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Contains(t, archived[0].Name(), "legalizaciones_enero.csv")
}

func TestScanOnce_FailedFileArchivedSeparately(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "rips_enero.csv"), []byte("A,B\n1,2\n"), 0o600))

	s := newTestScanner(t, dir, &memCache{})
	require.NoError(t, s.ScanOnce(context.Background()))

	failed, err := os.ReadDir(filepath.Join(dir, "failed"))
	require.NoError(t, err)
	assert.Len(t, failed, 1)
}

func TestScanOnce_IgnoresUnrecognizedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.csv"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unknown_module.csv"), []byte("x"), 0o600))

	s := newTestScanner(t, dir, &memCache{})
	require.NoError(t, s.ScanOnce(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3) // all three left in place, no archive dirs
}

func TestModuleFor(t *testing.T) {
	cases := map[string]string{
		"legalizaciones_2024.xlsx": domain.ModuleLegalizaciones,
		"RIPS_enero.csv":           domain.ModuleRIPS,
		"facturacion.xlsm":         domain.ModuleFacturacion,
		"procesos-feb.csv":         domain.ModuleProcesos,
	}
	for name, want := range cases {
		got, ok := moduleFor(name)
		require.True(t, ok, "file %q", name)
		assert.Equal(t, want, got)
	}

	for _, name := range []string{"legalizaciones.pdf", "resumen.csv", "facturas.xlsx"} {
		_, ok := moduleFor(name)
		assert.False(t, ok, "file %q", name)
	}
}
