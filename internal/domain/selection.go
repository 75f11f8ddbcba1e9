package domain

import "time"

// FilterSelection is the immutable per-view filter state passed by value
// into the filter engine. An empty set for a dimension means "no
// restriction on that dimension", never "exclude everything".
type FilterSelection struct {
	// DateFrom and DateTo bound the record date, inclusive on both ends.
	// A nil bound leaves that side open.
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	Users      []string `json:"users,omitempty"`
	Agreements []string `json:"agreements,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`
}

// Empty reports whether the selection imposes no restriction at all.
func (s FilterSelection) Empty() bool {
	return s.DateFrom == nil && s.DateTo == nil &&
		len(s.Users) == 0 && len(s.Agreements) == 0 && len(s.Statuses) == 0
}
