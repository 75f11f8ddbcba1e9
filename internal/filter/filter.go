// Package filter applies per-view dimensional filters to a loaded table.
package filter

import (
	"factuboard/internal/domain"
)

// Apply produces a new view of the table restricted to the selection. The
// underlying table is never mutated: the result shares row backing with
// the input, so any number of concurrent views with different selections
// are independent.
//
// An empty selection set for a dimension means no restriction on that
// dimension. Date bounds are inclusive on both ends.
func Apply(table *domain.Table, sel domain.FilterSelection) *domain.Table {
	if sel.Empty() {
		return table
	}

	dateIdx := table.ColumnIndex(domain.ColDate)
	userIdx := table.ColumnIndex(domain.ColUser)
	agreementIdx := table.ColumnIndex(domain.ColAgreement)
	statusIdx := table.ColumnIndex(domain.ColStatus)

	users := toSet(sel.Users)
	agreements := toSet(sel.Agreements)
	statuses := toSet(sel.Statuses)

	var from, to string
	if sel.DateFrom != nil {
		from = sel.DateFrom.Format(domain.DateLayout)
	}
	if sel.DateTo != nil {
		to = sel.DateTo.Format(domain.DateLayout)
	}

	view := &domain.Table{
		Module:  table.Module,
		Columns: table.Columns,
		Rows:    make([]domain.Row, 0, len(table.Rows)),
	}
	for _, row := range table.Rows {
		if dateIdx >= 0 {
			// Canonical dates compare correctly as strings.
			if from != "" && row[dateIdx] < from {
				continue
			}
			if to != "" && row[dateIdx] > to {
				continue
			}
		}
		if !matches(users, row, userIdx) {
			continue
		}
		if !matches(agreements, row, agreementIdx) {
			continue
		}
		if !matches(statuses, row, statusIdx) {
			continue
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// matches reports whether the row passes a set-membership dimension. An
// empty set imposes no restriction; a selection on a column the table does
// not carry excludes nothing either.
func matches(set map[string]struct{}, row domain.Row, idx int) bool {
	if len(set) == 0 || idx < 0 {
		return true
	}
	_, ok := set[row[idx]]
	return ok
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
