package panel

import (
	"sort"
	"strings"

	"depositbeta/internal/config"
	"depositbeta/pkg/contracts/domain"
)

// RawColumn returns the panel column holding the cumulative (pre-annualized)
// value of a YTD flow field. The prefix keeps it from colliding with the
// annualized output derived from it later.
func RawColumn(field string) string {
	return config.RawFieldPrefix + field
}

// AnnualizedColumn returns the panel column holding the annualized run rate
// of a YTD flow field. Any prefix up to the last underscore is dropped.
func AnnualizedColumn(field string) string {
	suffix := field
	if i := strings.LastIndex(field, "_"); i >= 0 {
		suffix = field[i+1:]
	}
	return config.AnnualizedPrefix + suffix
}

// AggregateConfig names the requested fields and the earliest reporting year
// included in the panel.
type AggregateConfig struct {
	AnnualizeFields    []string
	NonAnnualizeFields []string
	StartYear          int
}

// Aggregate collapses raw filing records into one panel row per
// (period, institution), one column per requested field. The value of each
// cell is the sum of every matching record; a field with no matching records
// sums to zero. Every (period, institution) pair present in the records gets
// a row, even when none of its records name a requested field — such a row
// is all zero, and its presence feeds the next quarter's de-cumulation.
// Duplicate records for the same (period, cert, field) are summed, never
// overwritten. Rows come out ordered by period ascending, then certificate
// ascending.
func Aggregate(records []domain.RawRecord, cfg AggregateConfig) *domain.Panel {
	// field name -> output column
	columnOf := make(map[string]string, len(cfg.AnnualizeFields)+len(cfg.NonAnnualizeFields))
	columns := make([]string, 0, len(columnOf))
	for _, f := range cfg.AnnualizeFields {
		columnOf[f] = RawColumn(f)
		columns = append(columns, RawColumn(f))
	}
	for _, f := range cfg.NonAnnualizeFields {
		columnOf[f] = f
		columns = append(columns, f)
	}

	type key struct {
		period domain.Period
		cert   int
	}

	sums := make(map[key]map[string]float64)
	for _, rec := range records {
		if rec.Period.Year() < cfg.StartYear {
			continue
		}
		k := key{period: rec.Period, cert: rec.Cert}
		cells, ok := sums[k]
		if !ok {
			cells = make(map[string]float64, len(columns))
			sums[k] = cells
		}
		column, requested := columnOf[rec.Field]
		if !requested {
			continue
		}
		cells[column] += rec.Value
	}

	keys := make([]key, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].period != keys[j].period {
			return keys[i].period < keys[j].period
		}
		return keys[i].cert < keys[j].cert
	})

	p := &domain.Panel{Columns: columns}
	p.Rows = make([]domain.PanelRow, 0, len(keys))
	for _, k := range keys {
		row := domain.NewPanelRow(k.period, domain.Cert(k.cert))
		for _, column := range columns {
			row.Set(column, domain.Num(sums[k][column]))
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}
