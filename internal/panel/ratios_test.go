package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depositbeta/internal/config"
	"depositbeta/pkg/contracts/domain"
)

func TestDeriveRatios(t *testing.T) {
	specs := []config.RatioSpec{
		{Numerator: "DEPINS", Denominator: "DEPDOM", Output: "insured_deposit_percentage"},
	}

	t.Run("computes numerator over denominator", func(t *testing.T) {
		row := domain.NewPanelRow("20230331", domain.Cert(1))
		row.Set("DEPINS", domain.Num(30))
		row.Set("DEPDOM", domain.Num(120))
		p := &domain.Panel{Columns: []string{"DEPINS", "DEPDOM"}, Rows: []domain.PanelRow{row}}

		DeriveRatios(p, specs)

		assert.Equal(t, domain.Num(0.25), p.Rows[0].Get("insured_deposit_percentage"))
		assert.Contains(t, p.Columns, "insured_deposit_percentage")
	})

	t.Run("zero denominator yields null", func(t *testing.T) {
		row := domain.NewPanelRow("20230331", domain.Cert(1))
		row.Set("DEPINS", domain.Num(30))
		row.Set("DEPDOM", domain.Num(0))
		p := &domain.Panel{Columns: []string{"DEPINS", "DEPDOM"}, Rows: []domain.PanelRow{row}}

		DeriveRatios(p, specs)

		assert.False(t, p.Rows[0].Get("insured_deposit_percentage").Valid)
	})

	t.Run("null operand yields null", func(t *testing.T) {
		row := domain.NewPanelRow("20230331", domain.Cert(1))
		row.Set("DEPDOM", domain.Num(120))
		p := &domain.Panel{Columns: []string{"DEPINS", "DEPDOM"}, Rows: []domain.PanelRow{row}}

		DeriveRatios(p, specs)

		assert.False(t, p.Rows[0].Get("insured_deposit_percentage").Valid)
	})

	t.Run("spec with absent column is skipped entirely", func(t *testing.T) {
		row := domain.NewPanelRow("20230331", domain.Cert(1))
		row.Set("DEPDOM", domain.Num(120))
		p := &domain.Panel{Columns: []string{"DEPDOM"}, Rows: []domain.PanelRow{row}}

		DeriveRatios(p, []config.RatioSpec{
			{Numerator: "NOPE", Denominator: "DEPDOM", Output: "broken"},
		})

		assert.NotContains(t, p.Columns, "broken")
	})

	t.Run("default spec table produces the deposit cost rate", func(t *testing.T) {
		row := domain.NewPanelRow("20230630", domain.Cert(1))
		row.Set("annualized_EDEPDOM", domain.Num(120))
		row.Set("DEPDOM", domain.Num(1000))
		p := &domain.Panel{Columns: []string{"annualized_EDEPDOM", "DEPDOM"}, Rows: []domain.PanelRow{row}}

		DeriveRatios(p, config.RatioSpecs)

		got := p.Rows[0].Get("deposit_expense_rate")
		require.True(t, got.Valid)
		assert.InDelta(t, 0.12, got.Float, 1e-12)
	})
}
