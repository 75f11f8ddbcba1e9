// Package metrics computes summary statistics over filtered views.
package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"factuboard/internal/domain"
)

// Summarize computes the named KPIs for a view. It is a pure function of
// its input: identical views produce identical metrics, with breakdowns
// ordered by descending count (then descending value), ties broken by key
// ascending, so snapshot output is reproducible.
//
// Monetary sums accumulate exactly; no floating-point aggregation is
// involved, so totals do not drift with row count.
func Summarize(view *domain.Table) *domain.Metrics {
	userIdx := view.ColumnIndex(domain.ColUser)
	dateIdx := view.ColumnIndex(domain.ColDate)
	agreementIdx := view.ColumnIndex(domain.ColAgreement)
	valueIdx := view.ColumnIndex(domain.ColValue)

	m := &domain.Metrics{
		Module:       view.Module,
		TotalRows:    len(view.Rows),
		TotalValue:   decimal.Zero,
		DailyAverage: decimal.Zero,
	}

	perUser := make(map[string]*bucket)
	perAgreement := make(map[string]*bucket)
	perDay := make(map[string]*bucket)

	add := func(groups map[string]*bucket, key string, v decimal.Decimal) {
		b := groups[key]
		if b == nil {
			b = &bucket{value: decimal.Zero}
			groups[key] = b
		}
		b.count++
		b.value = b.value.Add(v)
	}

	for _, row := range view.Rows {
		v := decimal.Zero
		if valueIdx >= 0 && row[valueIdx] != "" {
			if d, err := decimal.NewFromString(row[valueIdx]); err == nil {
				v = d
			}
		}
		m.TotalValue = m.TotalValue.Add(v)

		if userIdx >= 0 {
			add(perUser, row[userIdx], v)
		}
		if agreementIdx >= 0 {
			add(perAgreement, row[agreementIdx], v)
		}
		if dateIdx >= 0 {
			add(perDay, row[dateIdx], v)
		}
	}

	m.PerUser = toBreakdown(perUser)
	if agreementIdx >= 0 {
		m.PerAgreement = toBreakdown(perAgreement)
	}
	m.Trend = toTrend(perDay)

	if days := len(perDay); days > 0 {
		m.DailyAverage = decimal.NewFromInt(int64(m.TotalRows)).
			DivRound(decimal.NewFromInt(int64(days)), 2)
	}
	return m
}

func toBreakdown(groups map[string]*bucket) []domain.BreakdownEntry {
	out := make([]domain.BreakdownEntry, 0, len(groups))
	for key, b := range groups {
		out = append(out, domain.BreakdownEntry{Key: key, Count: b.count, Value: b.value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if cmp := out[i].Value.Cmp(out[j].Value); cmp != 0 {
			return cmp > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func toTrend(perDay map[string]*bucket) []domain.TrendPoint {
	out := make([]domain.TrendPoint, 0, len(perDay))
	for date, b := range perDay {
		out = append(out, domain.TrendPoint{Date: date, Count: b.count, Value: b.value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

type bucket struct {
	count int
	value decimal.Decimal
}
