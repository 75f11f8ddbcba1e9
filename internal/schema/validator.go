package schema

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"factuboard/internal/domain"
)

// NormalizeHeader canonicalizes a header cell: trim, newlines to spaces,
// uppercase. Upload headers vary in casing and embedded line breaks.
func NormalizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToUpper(strings.TrimSpace(s))
}

// acceptedDateLayouts are tried in order when parsing date cells. Uploads
// come from several source systems with differing export formats.
var acceptedDateLayouts = []string{
	domain.DateLayout,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02/01/2006 15:04",
}

// ParseDate parses a date cell and returns it in canonical form.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(domain.DateLayout), true
		}
	}
	return "", false
}

// ParseMoney parses a monetary cell and returns its canonical fixed
// two-decimal form. Handles currency signs and both thousands conventions.
func ParseMoney(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return "", false
	}

	dot := strings.LastIndexByte(s, '.')
	comma := strings.LastIndexByte(s, ',')
	switch {
	case dot >= 0 && comma >= 0:
		// The rightmost separator is the decimal point.
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		// A lone comma followed by exactly two digits is a decimal mark;
		// anything else is a thousands separator.
		if len(s)-comma-1 == 2 && strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		// Repeated dots can only be thousands separators.
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", false
	}
	return d.StringFixed(2), true
}

// Validate checks a raw upload against the module schema and converts it
// into a typed record table with canonical column names.
//
// Structural problems (missing columns) abort validation and are returned
// as a *domain.SchemaError listing every missing column at once. Row-level
// problems (empty user identifier, unparseable date or value) exclude the
// offending row and are collected in the returned RowError slice so the
// ingestion report can enumerate them.
func Validate(raw *domain.RawTable, ms *domain.ModuleSchema) (*domain.Table, []domain.RowError, error) {
	header := make([]string, len(raw.Header))
	for i, h := range raw.Header {
		name := NormalizeHeader(h)
		if alias, ok := ms.Aliases[name]; ok {
			name = alias
		}
		header[i] = name
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		if _, seen := colIdx[name]; !seen {
			colIdx[name] = i
		}
	}

	findVariant := func(variants []string) (int, bool) {
		for _, v := range variants {
			if i, ok := colIdx[NormalizeHeader(v)]; ok {
				return i, true
			}
		}
		return 0, false
	}

	schemaErr := &domain.SchemaError{Module: ms.Module}

	userIdx, userOK := findVariant(ms.UserVariants)
	if !userOK {
		schemaErr.MissingColumns = append(schemaErr.MissingColumns, domain.ColUser)
	}
	dateIdx, dateOK := findVariant(ms.DateVariants)
	if !dateOK {
		schemaErr.MissingColumns = append(schemaErr.MissingColumns, domain.ColDate)
	}
	for _, req := range ms.Required {
		if _, ok := colIdx[req]; !ok {
			schemaErr.MissingColumns = append(schemaErr.MissingColumns, req)
		}
	}
	valueIdx := -1
	if ms.ValueColumn != "" {
		i, ok := colIdx[ms.ValueColumn]
		if !ok {
			schemaErr.MissingColumns = append(schemaErr.MissingColumns, ms.ValueColumn)
		} else {
			valueIdx = i
		}
	}
	if len(schemaErr.MissingColumns) > 0 {
		return nil, nil, schemaErr
	}

	// Output layout: identifier and date first, then the declared columns
	// in schema order, then the monetary column.
	type outCol struct {
		col domain.Column
		src int // source column index; -1 for derived columns
	}
	out := []outCol{
		{domain.Column{Name: domain.ColDocument, Type: domain.TypeText}, -1},
		{domain.Column{Name: domain.ColUser, Type: domain.TypeText}, userIdx},
		{domain.Column{Name: domain.ColDate, Type: domain.TypeDate}, dateIdx},
	}
	for _, req := range ms.Required {
		i := colIdx[req]
		if i == userIdx || i == dateIdx {
			continue
		}
		out = append(out, outCol{domain.Column{Name: req, Type: domain.TypeText}, i})
	}
	if valueIdx >= 0 {
		out = append(out, outCol{domain.Column{Name: domain.ColValue, Type: domain.TypeMoney}, valueIdx})
	}

	table := &domain.Table{Module: ms.Module, Columns: make([]domain.Column, len(out))}
	for i, oc := range out {
		table.Columns[i] = oc.col
	}

	var rowErrs []domain.RowError
	statusIdx, hasStatus := colIdx[domain.ColStatus]

	for rowNum, src := range raw.Rows {
		cell := func(i int) string {
			if i < 0 || i >= len(src) {
				return ""
			}
			return strings.TrimSpace(src[i])
		}

		// The user identifier is the authorization key: an empty one is
		// rejected, never coerced.
		ident := strings.ToUpper(cell(userIdx))
		if ident == "" {
			rowErrs = append(rowErrs, domain.RowError{
				Row: rowNum + 1, Column: domain.ColUser, Reason: "empty user identifier",
			})
			continue
		}

		date, ok := ParseDate(cell(dateIdx))
		if !ok {
			rowErrs = append(rowErrs, domain.RowError{
				Row: rowNum + 1, Column: domain.ColDate,
				Reason: "unparseable date " + strconv.Quote(cell(dateIdx)),
			})
			continue
		}

		var value string
		if valueIdx >= 0 {
			value, ok = ParseMoney(cell(valueIdx))
			if !ok {
				rowErrs = append(rowErrs, domain.RowError{
					Row: rowNum + 1, Column: domain.ColValue,
					Reason: "unparseable monetary value " + strconv.Quote(cell(valueIdx)),
				})
				continue
			}
		}

		row := make(domain.Row, len(out))
		for i, oc := range out {
			switch oc.col.Name {
			case domain.ColDocument:
				row[i] = ident
			case domain.ColUser:
				row[i] = ident
			case domain.ColDate:
				row[i] = date
			case domain.ColStatus:
				if hasStatus {
					row[i] = strings.ToUpper(cell(statusIdx))
				}
			case domain.ColValue:
				row[i] = value
			default:
				row[i] = cell(oc.src)
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, rowErrs, nil
}
