package panel

import (
	"depositbeta/internal/config"
	"depositbeta/pkg/contracts/domain"
)

// DeriveRatios computes the fixed cross-field ratios on every panel row.
// A ratio is null when either operand is null or the denominator is zero;
// division never raises. A spec whose operand column is absent from the
// panel entirely is skipped without adding its output column.
func DeriveRatios(p *domain.Panel, specs []config.RatioSpec) {
	for _, spec := range specs {
		if !p.HasColumn(spec.Numerator) || !p.HasColumn(spec.Denominator) {
			continue
		}
		p.AddColumn(spec.Output)
		for _, row := range p.Rows {
			row.Set(spec.Output, safeDivide(row.Get(spec.Numerator), row.Get(spec.Denominator)))
		}
	}
}

// safeDivide returns num/den, null on null operands or a zero denominator.
func safeDivide(num, den domain.Value) domain.Value {
	if !num.Valid || !den.Valid || den.Float == 0 {
		return domain.Null()
	}
	return domain.Num(num.Float / den.Float)
}
