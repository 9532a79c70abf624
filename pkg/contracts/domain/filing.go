package domain

import (
	"fmt"
	"time"
)

// Period identifies a single quarterly reporting date in YYYYMMDD form.
// Periods compare and sort correctly as plain strings.
type Period string

// ParsePeriod validates a YYYYMMDD string and returns it as a Period.
func ParsePeriod(s string) (Period, error) {
	if len(s) != 8 {
		return "", fmt.Errorf("invalid period %q: want YYYYMMDD", s)
	}
	if _, err := time.Parse("20060102", s); err != nil {
		return "", fmt.Errorf("invalid period %q: %w", s, err)
	}
	return Period(s), nil
}

// Time returns the period as a calendar date.
func (p Period) Time() time.Time {
	t, _ := time.Parse("20060102", string(p))
	return t
}

// Year returns the calendar year of the period.
func (p Period) Year() int {
	return p.Time().Year()
}

// Month returns the calendar month of the period.
func (p Period) Month() time.Month {
	return p.Time().Month()
}

// IsYearStart reports whether the period is the first quarterly report of the
// reporting year. Year-to-date fields reset every January 1st, so the
// end-of-March filing carries a single quarter of flow.
func (p Period) IsYearStart() bool {
	return p.Month() == time.March
}

// String returns the YYYYMMDD form.
func (p Period) String() string {
	return string(p)
}

// RawRecord is one observation from a regulatory filing: a single financial
// field reported by one institution for one period. Records are read-only to
// the pipeline; duplicate (period, cert, field) records are summed during
// aggregation, never overwritten.
type RawRecord struct {
	Period Period  `json:"period"`
	Cert   int     `json:"cert"`
	Field  string  `json:"field"`
	Value  float64 `json:"value"`
}
