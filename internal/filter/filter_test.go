package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factuboard/internal/domain"
)

func sampleTable() *domain.Table {
	return &domain.Table{
		Module: domain.ModuleLegalizaciones,
		Columns: []domain.Column{
			{Name: domain.ColDocument, Type: domain.TypeText},
			{Name: domain.ColUser, Type: domain.TypeText},
			{Name: domain.ColDate, Type: domain.TypeDate},
			{Name: domain.ColStatus, Type: domain.TypeText},
			{Name: domain.ColAgreement, Type: domain.TypeText},
		},
		Rows: []domain.Row{
			{"1", "ANA", "2024-01-01", "ACTIVA", "EPS SURA"},
			{"2", "LUIS", "2024-01-15", "ACTIVA", "NUEVA EPS"},
			{"3", "ANA", "2024-02-01", "ACTIVA", "EPS SURA"},
		},
	}
}

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	require.NoError(t, err)
	return &d
}

func TestApply_EmptySelectionReturnsSameTable(t *testing.T) {
	table := sampleTable()
	view := Apply(table, domain.FilterSelection{})
	assert.Same(t, table, view)
}

func TestApply_DateBoundsInclusive(t *testing.T) {
	table := sampleTable()
	view := Apply(table, domain.FilterSelection{
		DateFrom: date(t, "2024-01-01"),
		DateTo:   date(t, "2024-01-15"),
	})
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "2024-01-01", view.Rows[0][2])
	assert.Equal(t, "2024-01-15", view.Rows[1][2])
}

func TestApply_OpenEndedBounds(t *testing.T) {
	table := sampleTable()

	fromOnly := Apply(table, domain.FilterSelection{DateFrom: date(t, "2024-01-15")})
	assert.Len(t, fromOnly.Rows, 2)

	toOnly := Apply(table, domain.FilterSelection{DateTo: date(t, "2024-01-15")})
	assert.Len(t, toOnly.Rows, 2)
}

func TestApply_UserSet(t *testing.T) {
	view := Apply(sampleTable(), domain.FilterSelection{Users: []string{"ANA"}})
	require.Len(t, view.Rows, 2)
	for _, row := range view.Rows {
		assert.Equal(t, "ANA", row[1])
	}
}

func TestApply_CombinedDimensions(t *testing.T) {
	view := Apply(sampleTable(), domain.FilterSelection{
		Users:      []string{"ANA"},
		Agreements: []string{"EPS SURA"},
		DateFrom:   date(t, "2024-01-15"),
	})
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "2024-02-01", view.Rows[0][2])
}

func TestApply_SelectionOnAbsentColumnExcludesNothing(t *testing.T) {
	table := &domain.Table{
		Module: domain.ModuleFacturacion,
		Columns: []domain.Column{
			{Name: domain.ColUser, Type: domain.TypeText},
			{Name: domain.ColDate, Type: domain.TypeDate},
		},
		Rows: []domain.Row{{"ANA", "2024-01-01"}},
	}
	view := Apply(table, domain.FilterSelection{Agreements: []string{"EPS SURA"}})
	assert.Len(t, view.Rows, 1)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	table := sampleTable()
	_ = Apply(table, domain.FilterSelection{Users: []string{"LUIS"}})
	assert.Len(t, table.Rows, 3)
}
