package panel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depositbeta/internal/config"
	"depositbeta/pkg/contracts/domain"
)

// TestEndToEndScenario drives a small raw extent through every transform in
// pipeline order and checks the values the downstream model depends on.
func TestEndToEndScenario(t *testing.T) {
	records := []domain.RawRecord{
		rec("20230331", 1, "ASSET", 100),
		rec("20230630", 1, "ASSET", 110),
		rec("20230331", 1, "EDEPDOM", 40),
		rec("20230630", 1, "EDEPDOM", 70),
		rec("20230331", 1, "DEPDOM", 1000),
		rec("20230630", 1, "DEPDOM", 1000),
	}

	p := Aggregate(records, AggregateConfig{
		AnnualizeFields:    []string{"EDEPDOM"},
		NonAnnualizeFields: []string{"ASSET", "DEPDOM"},
		StartYear:          1950,
	})

	entries := BestAssetRanks(records)
	p = CollapseTail(p, RankedCerts(entries, 200))
	Annualize(p, []string{"EDEPDOM"})
	DeriveRatios(p, config.RatioSpecs)

	rates := &domain.RateSeries{
		Names: []string{"ff_t"},
		Points: []domain.RatePoint{
			{Date: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
				Values: map[string]domain.Value{"ff_t": domain.Num(4.5)}},
			{Date: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
				Values: map[string]domain.Value{"ff_t": domain.Num(5.0)}},
		},
	}
	PrepareRates(rates)
	AlignRates(p, rates)

	require.Len(t, p.Rows, 2)
	q1, q2 := p.Rows[0], p.Rows[1]
	require.Equal(t, domain.Period("20230331"), q1.Period)
	require.Equal(t, domain.Period("20230630"), q2.Period)

	assert.Equal(t, domain.Num(160), q1.Get("annualized_EDEPDOM"))
	assert.Equal(t, domain.Num(120), q2.Get("annualized_EDEPDOM"))

	got := q2.Get("deposit_expense_rate")
	require.True(t, got.Valid)
	assert.InDelta(t, 0.12, got.Float, 1e-12)

	assert.Equal(t, domain.Num(0.045), q1.Get("ff_t"))
	assert.Equal(t, domain.Num(0.05), q2.Get("ff_t"))
}
