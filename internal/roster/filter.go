package roster

import (
	"factuboard/internal/domain"
)

// Roster column headers. The roster workbook has exactly these two columns.
const (
	ColRosterDocument = "DOCUMENTO"
	ColRosterName     = "NOMBRE"
)

// FilterAuthorized drops every row whose document identifier is not a key
// in the roster, preserving row order, and returns the count of dropped
// rows for the ingestion report.
//
// The gate fails closed: an empty roster yields a RosterUnavailableError
// rather than passing all rows through.
func FilterAuthorized(table *domain.Table, rosterMap map[string]string) (*domain.Table, int, error) {
	if len(rosterMap) == 0 {
		return nil, 0, domain.ErrRosterUnavailable(
			"roster is missing or empty; refusing to pass rows for module %q", table.Module)
	}

	docIdx := table.ColumnIndex(domain.ColDocument)
	if docIdx < 0 {
		return nil, 0, domain.ErrValidation("table for module %q has no %s column", table.Module, domain.ColDocument)
	}

	filtered := &domain.Table{
		Module:  table.Module,
		Columns: table.Columns,
		Rows:    make([]domain.Row, 0, len(table.Rows)),
	}
	dropped := 0
	for _, row := range table.Rows {
		if _, ok := rosterMap[row[docIdx]]; ok {
			filtered.Rows = append(filtered.Rows, row)
		} else {
			dropped++
		}
	}
	return filtered, dropped, nil
}

// ApplyNames replaces the user column's document IDs with the roster's full
// names, the cross-walk the dashboards display. Rows whose document has no
// roster entry keep the raw identifier; the DOCUMENTO column is untouched
// so re-filtering stays possible.
func ApplyNames(table *domain.Table, rosterMap map[string]string) {
	docIdx := table.ColumnIndex(domain.ColDocument)
	userIdx := table.ColumnIndex(domain.ColUser)
	if docIdx < 0 || userIdx < 0 {
		return
	}
	for _, row := range table.Rows {
		if name, ok := rosterMap[row[docIdx]]; ok {
			row[userIdx] = name
		}
	}
}

// FromRaw converts a parsed roster upload into authorized users. The file
// must carry exactly the DOCUMENTO and NOMBRE columns.
func FromRaw(raw *domain.RawTable) ([]domain.AuthorizedUser, error) {
	docIdx, nameIdx := -1, -1
	for i, h := range raw.Header {
		switch Normalize(h) {
		case ColRosterDocument:
			docIdx = i
		case ColRosterName:
			nameIdx = i
		}
	}
	if docIdx < 0 || nameIdx < 0 {
		return nil, &domain.SchemaError{
			Module:         "roster",
			MissingColumns: missingRosterColumns(docIdx, nameIdx),
		}
	}

	users := make([]domain.AuthorizedUser, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		if docIdx >= len(row) || nameIdx >= len(row) {
			continue
		}
		doc := Normalize(row[docIdx])
		name := Normalize(row[nameIdx])
		if doc == "" || name == "" {
			continue
		}
		users = append(users, domain.AuthorizedUser{DocumentID: doc, FullName: name})
	}
	return users, nil
}

func missingRosterColumns(docIdx, nameIdx int) []string {
	var missing []string
	if docIdx < 0 {
		missing = append(missing, ColRosterDocument)
	}
	if nameIdx < 0 {
		missing = append(missing, ColRosterName)
	}
	return missing
}
