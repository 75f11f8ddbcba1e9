package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factuboard/internal/domain"
)

func legalizacionesSchema(t *testing.T) *domain.ModuleSchema {
	t.Helper()
	reg, err := NewRegistry()
	require.NoError(t, err)
	ms, err := reg.Get(domain.ModuleLegalizaciones)
	require.NoError(t, err)
	return ms
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "FECHA REAL", NormalizeHeader("  fecha\nreal  "))
	assert.Equal(t, "USUARIO FACTURÓ", NormalizeHeader("Usuario   Facturó"))
	assert.Equal(t, "ESTADO", NormalizeHeader("estado"))
}

func TestParseDate_AcceptedLayouts(t *testing.T) {
	for _, in := range []string{
		"2024-03-15",
		"2024-03-15 10:22:03",
		"2024/03/15",
		"15/03/2024",
		"15/3/2024",
		"15-03-2024",
		"15/03/2024 10:22",
	} {
		got, ok := ParseDate(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, "2024-03-15", got, "input %q", in)
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, in := range []string{"", "  ", "not-a-date", "2024-13-40"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestParseMoney(t *testing.T) {
	cases := map[string]string{
		"1234":         "1234.00",
		"$ 1.234.567":  "1234567.00",
		"1.234.567,89": "1234567.89",
		"1,234,567.89": "1234567.89",
		"1234,56":      "1234.56",
		"1,234":        "1234.00",
		"$250000":      "250000.00",
		"0":            "0.00",
	}
	for in, want := range cases {
		got, ok := ParseMoney(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestParseMoney_Rejects(t *testing.T) {
	for _, in := range []string{"", "$", "abc", "12.34.56abc"} {
		_, ok := ParseMoney(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestValidate_CanonicalLayout(t *testing.T) {
	ms := legalizacionesSchema(t)
	raw := &domain.RawTable{
		Header: []string{"ID_LEGALIZACION", "Usuario", "Fecha Real", "Estado", "Convenio"},
		Rows: [][]string{
			{"L-1", "123", "15/03/2024", "activa", "EPS SURA"},
		},
	}

	table, rowErrs, err := Validate(raw, ms)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)

	assert.Equal(t, []string{
		domain.ColDocument, domain.ColUser, domain.ColDate,
		"ID_LEGALIZACION", domain.ColStatus, domain.ColAgreement,
	}, table.ColumnNames())

	require.Len(t, table.Rows, 1)
	assert.Equal(t, domain.Row{"123", "123", "2024-03-15", "L-1", "ACTIVA", "EPS SURA"}, table.Rows[0])
}

func TestValidate_MissingDateColumn(t *testing.T) {
	ms := legalizacionesSchema(t)
	raw := &domain.RawTable{
		Header: []string{"ID_LEGALIZACION", "USUARIO", "ESTADO", "CONVENIO"},
		Rows:   [][]string{{"L-1", "123", "ACTIVA", "EPS"}},
	}

	_, _, err := Validate(raw, ms)
	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{domain.ColDate}, schemaErr.MissingColumns)
}

func TestValidate_CollectsAllMissingColumns(t *testing.T) {
	ms := legalizacionesSchema(t)
	raw := &domain.RawTable{
		Header: []string{"ID_LEGALIZACION", "ESTADO"},
		Rows:   [][]string{{"L-1", "ACTIVA"}},
	}

	_, _, err := Validate(raw, ms)
	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.ElementsMatch(t,
		[]string{domain.ColUser, domain.ColDate, domain.ColAgreement},
		schemaErr.MissingColumns)
}

func TestValidate_UserVariantFallback(t *testing.T) {
	ms := legalizacionesSchema(t)
	raw := &domain.RawTable{
		Header: []string{"ID_LEGALIZACION", "Usuario Facturó", "FECHA", "ESTADO", "CONVENIO"},
		Rows:   [][]string{{"L-1", "456", "2024-01-02", "ACTIVA", "EPS"}},
	}

	table, rowErrs, err := Validate(raw, ms)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "456", table.Rows[0][table.ColumnIndex(domain.ColUser)])
}

func TestValidate_FacturacionAliasAndValue(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	ms, err := reg.Get(domain.ModuleFacturacion)
	require.NoError(t, err)

	// Source systems export the legalization number with the historical typo.
	raw := &domain.RawTable{
		Header: []string{"NRO_LEGALIACION", "USUARIO FACTURÓ", "FECHA_FACTURA", "VALOR"},
		Rows: [][]string{
			{"F-900", "789", "2024-05-01", "$1.250.000,50"},
		},
	}

	table, rowErrs, err := Validate(raw, ms)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)

	assert.Equal(t, []string{
		domain.ColDocument, domain.ColUser, domain.ColDate,
		"NRO_LEGALIZACION", domain.ColValue,
	}, table.ColumnNames())
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "1250000.50", table.Rows[0][table.ColumnIndex(domain.ColValue)])
}

func TestValidate_RowErrorsExcludeRows(t *testing.T) {
	ms := legalizacionesSchema(t)
	raw := &domain.RawTable{
		Header: []string{"ID_LEGALIZACION", "USUARIO", "FECHA", "ESTADO", "CONVENIO"},
		Rows: [][]string{
			{"L-1", "123", "2024-01-01", "ACTIVA", "EPS"},
			{"L-2", "", "2024-01-02", "ACTIVA", "EPS"},
			{"L-3", "456", "yesterday", "ACTIVA", "EPS"},
			{"L-4", "789", "2024-01-04", "ACTIVA", "EPS"},
		},
	}

	table, rowErrs, err := Validate(raw, ms)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	require.Len(t, rowErrs, 2)
	assert.Equal(t, 2, rowErrs[0].Row)
	assert.Equal(t, domain.ColUser, rowErrs[0].Column)
	assert.Equal(t, 3, rowErrs[1].Row)
	assert.Equal(t, domain.ColDate, rowErrs[1].Column)
}

func TestValidate_ShortRowsPadAsEmpty(t *testing.T) {
	ms := legalizacionesSchema(t)
	raw := &domain.RawTable{
		Header: []string{"ID_LEGALIZACION", "USUARIO", "FECHA", "ESTADO", "CONVENIO"},
		Rows: [][]string{
			{"L-1", "123", "2024-01-01", "ACTIVA"}, // convenio cell missing
		},
	}

	table, rowErrs, err := Validate(raw, ms)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Rows[0][table.ColumnIndex(domain.ColAgreement)])
}
