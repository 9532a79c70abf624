package panel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depositbeta/pkg/contracts/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ratePoint(date time.Time, values map[string]domain.Value) domain.RatePoint {
	return domain.RatePoint{Date: date, Values: values}
}

func TestPrepareRates(t *testing.T) {
	t.Run("scales percentages to decimals and rounds", func(t *testing.T) {
		rs := &domain.RateSeries{
			Names: []string{"ff_t"},
			Points: []domain.RatePoint{
				ratePoint(day(2023, 1, 2), map[string]domain.Value{"ff_t": domain.Num(4.333333333)}),
			},
		}
		PrepareRates(rs)

		assert.Equal(t, domain.Num(0.043333), rs.Points[0].Values["ff_t"])
	})

	t.Run("forward fills gaps per series independently", func(t *testing.T) {
		rs := &domain.RateSeries{
			Names: []string{"ff_t", "t_10y"},
			Points: []domain.RatePoint{
				ratePoint(day(2023, 1, 2), map[string]domain.Value{"ff_t": domain.Num(4), "t_10y": domain.Null()}),
				ratePoint(day(2023, 1, 3), map[string]domain.Value{"ff_t": domain.Null(), "t_10y": domain.Num(3.5)}),
				ratePoint(day(2023, 1, 4), map[string]domain.Value{"ff_t": domain.Null(), "t_10y": domain.Null()}),
			},
		}
		PrepareRates(rs)

		// ff_t persists from Jan 2; t_10y stays null before its first
		// observation and persists after it.
		assert.Equal(t, domain.Num(0.04), rs.Points[1].Values["ff_t"])
		assert.Equal(t, domain.Num(0.04), rs.Points[2].Values["ff_t"])
		assert.False(t, rs.Points[0].Values["t_10y"].Valid)
		assert.Equal(t, domain.Num(0.035), rs.Points[2].Values["t_10y"])
	})

	t.Run("sorts observations by date first", func(t *testing.T) {
		rs := &domain.RateSeries{
			Names: []string{"ff_t"},
			Points: []domain.RatePoint{
				ratePoint(day(2023, 1, 3), map[string]domain.Value{"ff_t": domain.Null()}),
				ratePoint(day(2023, 1, 2), map[string]domain.Value{"ff_t": domain.Num(4)}),
			},
		}
		PrepareRates(rs)

		require.True(t, rs.Points[0].Date.Before(rs.Points[1].Date))
		assert.Equal(t, domain.Num(0.04), rs.Points[1].Values["ff_t"])
	})
}

func TestAlignRates(t *testing.T) {
	prepared := func() *domain.RateSeries {
		rs := &domain.RateSeries{
			Names: []string{"ff_t"},
			Points: []domain.RatePoint{
				ratePoint(day(2023, 3, 15), map[string]domain.Value{"ff_t": domain.Num(4.5)}),
				ratePoint(day(2023, 6, 15), map[string]domain.Value{"ff_t": domain.Num(5.0)}),
			},
		}
		PrepareRates(rs)
		return rs
	}

	t.Run("backward as-of match", func(t *testing.T) {
		p := &domain.Panel{
			Rows: []domain.PanelRow{
				domain.NewPanelRow("20230331", domain.Cert(1)),
				domain.NewPanelRow("20230630", domain.Cert(1)),
			},
		}
		AlignRates(p, prepared())

		// March 31 sees the March 15 observation; June 30 sees June 15.
		assert.Equal(t, domain.Num(0.045), p.Rows[0].Get("ff_t"))
		assert.Equal(t, domain.Num(0.05), p.Rows[1].Get("ff_t"))
		assert.Contains(t, p.Columns, "ff_t")
	})

	t.Run("row before first observation gets null", func(t *testing.T) {
		p := &domain.Panel{
			Rows: []domain.PanelRow{
				domain.NewPanelRow("20221231", domain.Cert(1)),
			},
		}
		AlignRates(p, prepared())

		assert.False(t, p.Rows[0].Get("ff_t").Valid)
	})

	t.Run("exact date match is included", func(t *testing.T) {
		p := &domain.Panel{
			Rows: []domain.PanelRow{
				domain.NewPanelRow("20230315", domain.Cert(1)),
			},
		}
		AlignRates(p, prepared())

		assert.Equal(t, domain.Num(0.045), p.Rows[0].Get("ff_t"))
	})

	t.Run("unsorted panel rows are each matched by their own date", func(t *testing.T) {
		p := &domain.Panel{
			Rows: []domain.PanelRow{
				domain.NewPanelRow("20230630", domain.Cert(2)),
				domain.NewPanelRow("20230331", domain.Cert(1)),
			},
		}
		AlignRates(p, prepared())

		assert.Equal(t, domain.Num(0.05), p.Rows[0].Get("ff_t"))
		assert.Equal(t, domain.Num(0.045), p.Rows[1].Get("ff_t"))
	})
}
