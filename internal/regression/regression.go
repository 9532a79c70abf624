// Package regression fits the deposit-beta model: an ordinary least squares
// line through one institution's deposit expense rate against a chosen
// macro rate. The single-regressor fit has a closed form, so no numeric
// library is involved.
package regression

import (
	"fmt"

	"depositbeta/pkg/contracts/domain"
)

// Fit is the result of one model fit.
type Fit struct {
	Intercept    float64 `json:"intercept"`
	Beta         float64 `json:"beta"`
	RSquared     float64 `json:"r_squared"`
	Observations int     `json:"observations"`
}

// minObservations is the smallest sample a fit will accept. Two points
// define a line exactly; anything less is unsolvable.
const minObservations = 3

// FitDepositBeta regresses yColumn on xColumn over the rows of one
// institution. Rows where either value is null are excluded.
func FitDepositBeta(p *domain.Panel, id domain.InstitutionID, yColumn, xColumn string) (*Fit, error) {
	if !p.HasColumn(yColumn) {
		return nil, fmt.Errorf("panel has no column %q", yColumn)
	}
	if !p.HasColumn(xColumn) {
		return nil, fmt.Errorf("panel has no column %q", xColumn)
	}

	var xs, ys []float64
	for _, row := range p.Rows {
		if row.ID != id {
			continue
		}
		y := row.Get(yColumn)
		x := row.Get(xColumn)
		if !y.Valid || !x.Valid {
			continue
		}
		ys = append(ys, y.Float)
		xs = append(xs, x.Float)
	}

	if len(xs) < minObservations {
		return nil, fmt.Errorf("institution %s has %d usable observations, need at least %d",
			id, len(xs), minObservations)
	}

	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy, syy float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return nil, fmt.Errorf("regressor %q is constant over the sample", xColumn)
	}

	beta := sxy / sxx
	fit := &Fit{
		Intercept:    meanY - beta*meanX,
		Beta:         beta,
		Observations: len(xs),
	}
	if syy > 0 {
		fit.RSquared = (sxy * sxy) / (sxx * syy)
	}
	return fit, nil
}
