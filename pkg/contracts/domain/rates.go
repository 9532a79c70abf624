package domain

import (
	"time"
)

// RatePoint is one calendar-date observation of the macro rate series. A
// series missing an observation on that date carries a null value.
type RatePoint struct {
	Date   time.Time
	Values map[string]Value
}

// RateSeries is the macro rate table: one point per calendar date, one named
// column per rate series, sorted ascending by date. Observation cadence is
// irregular; consumers forward-fill before joining.
type RateSeries struct {
	Names  []string
	Points []RatePoint
}

// Len returns the number of observations.
func (rs *RateSeries) Len() int {
	return len(rs.Points)
}
