package domain

import "time"

// ColumnType is the semantic type of a table column. Cell values are stored
// in canonical string form; the type governs how the cache store persists
// the column and how downstream components interpret it.
type ColumnType string

const (
	TypeText  ColumnType = "text"
	TypeDate  ColumnType = "date"  // canonical form: 2006-01-02
	TypeMoney ColumnType = "money" // canonical form: fixed two decimal places
)

// DateLayout is the canonical layout for TypeDate cells.
const DateLayout = "2006-01-02"

// Canonical column names produced by the schema validator. Uploaded files
// use varying headers (USUARIO FACTURÓ, FECHA_REAL, ...); validation
// resolves the variants and renames them so every downstream component
// addresses one fixed set.
const (
	ColUser      = "USUARIO"
	ColDocument  = "DOCUMENTO"
	ColDate      = "FECHA"
	ColStatus    = "ESTADO"
	ColAgreement = "CONVENIO"
	ColValue     = "VALOR"
)

// Column is a named, typed table column.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Row holds one record's cells, positionally aligned with Table.Columns.
// Rows are never mutated after validation; filtering produces a new Table
// that shares row backing with the original.
type Row []string

// Table is an ordered sequence of validated rows for one module's dataset.
type Table struct {
	Module  string   `json:"module"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// RawTable is a parsed upload before schema validation: normalized headers
// plus untyped cell strings.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// CacheMeta describes a persisted cache entry for one module.
type CacheMeta struct {
	Module      string    `json:"module"`
	RowCount    int       `json:"row_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// AuthorizedUser is one entry of the roster, the single source of truth for
// who may appear in any output.
type AuthorizedUser struct {
	DocumentID string `json:"document_id"`
	FullName   string `json:"full_name"`
}
