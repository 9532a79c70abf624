package panel

import (
	"sort"

	"depositbeta/pkg/contracts/domain"
)

// Annualize converts the cumulative year-to-date flow fields into annualized
// run-rate columns, independently per institution. For each institution's
// periods in ascending order:
//
//   - a March period carries one quarter of flow, so annualized = 4 × raw;
//   - any other period is de-cumulated against the previous period first,
//     annualized = 4 × (raw − previous raw);
//   - a non-March period with no previous observation falls back to
//     4 × raw. This is a known approximation for institutions entering the
//     data mid-year, kept deliberately rather than failing the run.
//
// Each institution's series is sorted here; callers need not pre-sort. Using
// one institution's previous value for another would corrupt the
// de-cumulation, so grouping happens strictly by institution ID, the tail
// aggregate included.
func Annualize(p *domain.Panel, fields []string) {
	groups := make(map[domain.InstitutionID][]int)
	for i, row := range p.Rows {
		groups[row.ID] = append(groups[row.ID], i)
	}
	for _, indices := range groups {
		sort.Slice(indices, func(a, b int) bool {
			return p.Rows[indices[a]].Period < p.Rows[indices[b]].Period
		})
	}

	for _, field := range fields {
		rawCol := RawColumn(field)
		outCol := AnnualizedColumn(field)
		p.AddColumn(outCol)

		for _, indices := range groups {
			prev := domain.Null()
			for _, i := range indices {
				row := p.Rows[i]
				raw := row.Get(rawCol)
				row.Set(outCol, annualizeOne(row.Period, raw, prev))
				prev = raw
			}
		}
	}
}

// annualizeOne applies the de-cumulation rule to a single observation.
func annualizeOne(period domain.Period, raw, prev domain.Value) domain.Value {
	if !raw.Valid {
		return domain.Null()
	}
	if period.IsYearStart() || !prev.Valid {
		return domain.Num(raw.Float * 4)
	}
	return domain.Num((raw.Float - prev.Float) * 4)
}
