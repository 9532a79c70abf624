package panel

import (
	"sort"

	"depositbeta/pkg/contracts/domain"
)

// CollapseTail partitions panel rows into ranked institutions, kept
// unchanged, and tail institutions, collapsed into one synthetic row per
// period holding the field-wise sum over the tail. Ranked rows keep their
// order; tail rows follow, ordered by period. A period with no tail
// institutions emits no tail row at all. The conservation law holds: for any
// field and period, ranked values plus the tail value equal the sum over all
// institutions.
func CollapseTail(p *domain.Panel, ranked map[int]bool) *domain.Panel {
	out := &domain.Panel{Columns: p.Columns}

	tailSums := make(map[domain.Period]map[string]float64)
	for _, row := range p.Rows {
		cert, isReal := row.ID.CertNumber()
		if isReal && ranked[cert] {
			out.Rows = append(out.Rows, row)
			continue
		}
		cells, ok := tailSums[row.Period]
		if !ok {
			cells = make(map[string]float64, len(p.Columns))
			tailSums[row.Period] = cells
		}
		for _, column := range p.Columns {
			if v := row.Get(column); v.Valid {
				cells[column] += v.Float
			}
		}
	}

	periods := make([]domain.Period, 0, len(tailSums))
	for period := range tailSums {
		periods = append(periods, period)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })

	for _, period := range periods {
		row := domain.NewPanelRow(period, domain.TailAggregate())
		for _, column := range p.Columns {
			row.Set(column, domain.Num(tailSums[period][column]))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
