package dataset

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factuboard/internal/domain"
	"factuboard/internal/ingest"
	"factuboard/internal/schema"
)

type stubCache struct {
	tables map[string]*domain.Table
	loads  int
}

func (s *stubCache) Save(_ context.Context, table *domain.Table) (*domain.CacheMeta, error) {
	if s.tables == nil {
		s.tables = make(map[string]*domain.Table)
	}
	s.tables[table.Module] = table
	return &domain.CacheMeta{Module: table.Module, RowCount: len(table.Rows), LastUpdated: time.Now().UTC()}, nil
}

func (s *stubCache) Load(_ context.Context, module string) (*domain.Table, *domain.CacheMeta, error) {
	s.loads++
	table, ok := s.tables[module]
	if !ok {
		return nil, nil, domain.ErrCacheMiss(module)
	}
	return table, &domain.CacheMeta{Module: module, RowCount: len(table.Rows)}, nil
}

func (s *stubCache) Meta(_ context.Context, module string) (*domain.CacheMeta, error) {
	table, ok := s.tables[module]
	if !ok {
		return nil, domain.ErrCacheMiss(module)
	}
	return &domain.CacheMeta{Module: module, RowCount: len(table.Rows)}, nil
}

type stubRoster struct{ users map[string]string }

func (s *stubRoster) All(context.Context) (map[string]string, error) { return s.users, nil }
func (s *stubRoster) Replace(context.Context, []domain.AuthorizedUser) error {
	return nil
}
func (s *stubRoster) Count(context.Context) (int, error) { return len(s.users), nil }

func cachedTable(module string) *domain.Table {
	return &domain.Table{
		Module: module,
		Columns: []domain.Column{
			{Name: domain.ColDocument, Type: domain.TypeText},
			{Name: domain.ColUser, Type: domain.TypeText},
			{Name: domain.ColDate, Type: domain.TypeDate},
		},
		Rows: []domain.Row{{"123", "ANA", "2024-01-01"}},
	}
}

func newTestLoader(t *testing.T, cache domain.CacheStore, users map[string]string) *Loader {
	t.Helper()
	schemas, err := schema.NewRegistry()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ingestor := ingest.NewService(schemas, &stubRoster{users: users}, cache, nil, logger)
	return NewLoader(cache, ingestor, logger)
}

func TestLoader_GetModuleTable_CacheHit(t *testing.T) {
	cache := &stubCache{tables: map[string]*domain.Table{
		domain.ModuleRIPS: cachedTable(domain.ModuleRIPS),
	}}
	loader := newTestLoader(t, cache, nil)

	table, err := loader.GetModuleTable(context.Background(), domain.ModuleRIPS)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	// second call serves the snapshot without re-reading the store
	_, err = loader.GetModuleTable(context.Background(), domain.ModuleRIPS)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.loads)

	for _, st := range loader.Status(context.Background()) {
		if st.Module == domain.ModuleRIPS {
			assert.Equal(t, domain.StateCacheHit, st.State)
		}
	}
}

func TestLoader_GetModuleTable_CacheMiss(t *testing.T) {
	loader := newTestLoader(t, &stubCache{}, nil)

	_, err := loader.GetModuleTable(context.Background(), domain.ModuleRIPS)
	var miss *domain.CacheMissError
	require.ErrorAs(t, err, &miss)
}

func TestLoader_SnapshotSurvivesCacheDeletion(t *testing.T) {
	cache := &stubCache{tables: map[string]*domain.Table{
		domain.ModuleRIPS: cachedTable(domain.ModuleRIPS),
	}}
	loader := newTestLoader(t, cache, nil)

	_, err := loader.GetModuleTable(context.Background(), domain.ModuleRIPS)
	require.NoError(t, err)

	// cache file disappears mid-session
	delete(cache.tables, domain.ModuleRIPS)

	table, err := loader.GetModuleTable(context.Background(), domain.ModuleRIPS)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}

func TestLoader_UnknownModule(t *testing.T) {
	loader := newTestLoader(t, &stubCache{}, nil)

	_, err := loader.GetModuleTable(context.Background(), "nomina")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestLoader_IngestReplacesSnapshot(t *testing.T) {
	cache := &stubCache{}
	loader := newTestLoader(t, cache, map[string]string{"123": "ANA PÉREZ"})

	csvData := "ID_LEGALIZACION,USUARIO,FECHA,ESTADO,CONVENIO\n" +
		"L-1,123,2024-01-01,ACTIVA,EPS SURA\n"
	report, err := loader.Ingest(context.Background(), "tester",
		domain.ModuleLegalizaciones, "legalizaciones.csv", strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, report.RowsCommitted)

	table, err := loader.GetModuleTable(context.Background(), domain.ModuleLegalizaciones)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "ANA PÉREZ", table.Rows[0][table.ColumnIndex(domain.ColUser)])

	statuses := loader.Status(context.Background())
	for _, st := range statuses {
		if st.Module == domain.ModuleLegalizaciones {
			assert.Equal(t, domain.StateReady, st.State)
			require.NotNil(t, st.Meta)
			assert.Equal(t, 1, st.Meta.RowCount)
		}
	}
}

func TestLoader_FailedIngestKeepsPriorSnapshot(t *testing.T) {
	cache := &stubCache{tables: map[string]*domain.Table{
		domain.ModuleLegalizaciones: cachedTable(domain.ModuleLegalizaciones),
	}}
	loader := newTestLoader(t, cache, map[string]string{"123": "ANA"})

	prior, err := loader.GetModuleTable(context.Background(), domain.ModuleLegalizaciones)
	require.NoError(t, err)

	// header marker missing, so ingestion is rejected
	_, err = loader.Ingest(context.Background(), "tester",
		domain.ModuleLegalizaciones, "broken.csv", strings.NewReader("A,B\n1,2\n"))
	require.Error(t, err)

	table, err := loader.GetModuleTable(context.Background(), domain.ModuleLegalizaciones)
	require.NoError(t, err)
	assert.Same(t, prior, table)

	for _, st := range loader.Status(context.Background()) {
		if st.Module == domain.ModuleLegalizaciones {
			assert.Equal(t, domain.StateCacheHit, st.State)
		}
	}
}

func TestLoader_FailedIngestWithoutSnapshotRestoresState(t *testing.T) {
	loader := newTestLoader(t, &stubCache{}, map[string]string{"123": "ANA"})

	_, err := loader.Ingest(context.Background(), "tester",
		domain.ModuleLegalizaciones, "broken.csv", strings.NewReader("A,B\n1,2\n"))
	require.Error(t, err)

	for _, st := range loader.Status(context.Background()) {
		if st.Module == domain.ModuleLegalizaciones {
			assert.Equal(t, domain.StateUnloaded, st.State)
		}
	}
}

func TestLoader_StatusSurfacesUntouchedCacheMeta(t *testing.T) {
	cache := &stubCache{tables: map[string]*domain.Table{
		domain.ModuleProcesos: cachedTable(domain.ModuleProcesos),
	}}
	loader := newTestLoader(t, cache, nil)

	for _, st := range loader.Status(context.Background()) {
		switch st.Module {
		case domain.ModuleProcesos:
			assert.Equal(t, domain.StateUnloaded, st.State)
			require.NotNil(t, st.Meta)
			assert.Equal(t, 1, st.Meta.RowCount)
		case domain.ModuleRIPS:
			assert.Nil(t, st.Meta)
		}
	}
}
