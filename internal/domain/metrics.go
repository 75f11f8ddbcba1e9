package domain

import "github.com/shopspring/decimal"

// BreakdownEntry is one group of a per-dimension breakdown. Breakdowns are
// ordered by descending Count (then descending Value), ties broken by Key
// ascending, so output is stable and reproducible.
type BreakdownEntry struct {
	Key   string          `json:"key"`
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// TrendPoint is one day of the time-bucketed trend series, ordered by date.
type TrendPoint struct {
	Date  string          `json:"date"` // canonical 2006-01-02
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// Metrics holds the named KPIs computed from a filtered view. Monetary
// figures use exact decimal accumulation; Value fields are zero for modules
// without a monetary column.
type Metrics struct {
	Module       string           `json:"module"`
	TotalRows    int              `json:"total_rows"`
	TotalValue   decimal.Decimal  `json:"total_value"`
	DailyAverage decimal.Decimal  `json:"daily_average"` // rows per active day, 2 dp
	PerUser      []BreakdownEntry `json:"per_user"`
	PerAgreement []BreakdownEntry `json:"per_agreement,omitempty"`
	Trend        []TrendPoint     `json:"trend"`
}
