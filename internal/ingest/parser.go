// Package ingest parses uploaded spreadsheets and runs the ingestion
// pipeline: validate, status-filter, authorize, cross-walk, persist.
package ingest

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"factuboard/internal/domain"
	"factuboard/internal/schema"
)

// ParseUpload reads a CSV or XLSX upload into a raw table. Operational
// exports often carry banner rows above the real headers, so the header
// row is located by scanning for the module's marker column; rows above it
// are discarded.
func ParseUpload(filename string, r io.Reader, marker string) (*domain.RawTable, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(r, marker)
	case ".xlsx", ".xlsm":
		return parseXLSX(r, marker)
	default:
		return nil, domain.ErrValidation("unsupported upload format %q (want .csv or .xlsx)", filepath.Ext(filename))
	}
}

func parseCSV(r io.Reader, marker string) (*domain.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // banner rows have ragged widths
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, domain.ErrValidation("malformed CSV: %v", err)
	}
	return tableFromRecords(records, marker)
}

func parseXLSX(r io.Reader, marker string) (*domain.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.ErrValidation("malformed workbook: %v", err)
	}
	defer f.Close() //nolint:errcheck

	// The marker may live on any sheet (the roster workbook keeps its data
	// on the second one); the first sheet containing it wins.
	var lastErr error
	for _, sheet := range f.GetSheetList() {
		records, err := f.GetRows(sheet)
		if err != nil {
			lastErr = err
			continue
		}
		if raw, err := tableFromRecords(records, marker); err == nil {
			return raw, nil
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, domain.ErrValidation("no sheet with header marker %q: %v", marker, lastErr)
	}
	return nil, domain.ErrValidation("workbook has no sheets")
}

// tableFromRecords locates the header row by marker and splits the records
// into header and data rows.
func tableFromRecords(records [][]string, marker string) (*domain.RawTable, error) {
	want := schema.NormalizeHeader(marker)
	for i, record := range records {
		for _, cell := range record {
			if strings.HasPrefix(schema.NormalizeHeader(cell), want) {
				return &domain.RawTable{Header: record, Rows: records[i+1:]}, nil
			}
		}
	}
	return nil, domain.ErrValidation("header row with marker %q not found", marker)
}

// sourceName trims any path from an uploaded filename for reports and audit.
func sourceName(filename string) string {
	if filename == "" {
		return ""
	}
	return filepath.Base(filename)
}
