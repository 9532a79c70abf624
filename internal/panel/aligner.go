package panel

import (
	"sort"

	"depositbeta/internal/config"
	"depositbeta/pkg/contracts/domain"
)

// PrepareRates normalizes the macro rate series in place for joining:
// observations are sorted by date, every series is divided by 100 (the
// source reports percentage units), missing observations are forward-filled
// per series independently, and values are rounded to six decimal places. A
// date before a series' first observation stays null after filling.
func PrepareRates(rs *domain.RateSeries) {
	sort.Slice(rs.Points, func(i, j int) bool {
		return rs.Points[i].Date.Before(rs.Points[j].Date)
	})

	for _, name := range rs.Names {
		prev := domain.Null()
		for _, point := range rs.Points {
			v := point.Values[name]
			if v.Valid {
				v = domain.Num(v.Float / 100).Round(config.RateDecimalPlaces)
				prev = v
			} else {
				v = prev
			}
			point.Values[name] = v
		}
	}
}

// AlignRates attaches the macro rate columns to every panel row by backward
// as-of match: a row dated D gets the values of the latest rate observation
// dated at or before D. Rows dated before the first observation get nulls.
// The join is one batched pass over the panel sorted by date, so each row's
// rate values depend only on its own date and the monotone rate series.
// Call PrepareRates first.
func AlignRates(p *domain.Panel, rs *domain.RateSeries) {
	for _, name := range rs.Names {
		p.AddColumn(name)
	}

	order := make([]int, len(p.Rows))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return p.Rows[order[a]].Period < p.Rows[order[b]].Period
	})

	j := -1
	for _, i := range order {
		row := p.Rows[i]
		date := row.Period.Time()
		for j+1 < len(rs.Points) && !rs.Points[j+1].Date.After(date) {
			j++
		}
		for _, name := range rs.Names {
			if j < 0 {
				row.Set(name, domain.Null())
			} else {
				row.Set(name, rs.Points[j].Values[name])
			}
		}
	}
}
