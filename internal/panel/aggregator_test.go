package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depositbeta/pkg/contracts/domain"
)

func rec(period string, cert int, field string, value float64) domain.RawRecord {
	return domain.RawRecord{Period: domain.Period(period), Cert: cert, Field: field, Value: value}
}

func TestAggregate(t *testing.T) {
	cfg := AggregateConfig{
		AnnualizeFields:    []string{"EDEPDOM"},
		NonAnnualizeFields: []string{"ASSET", "DEPDOM"},
		StartYear:          1950,
	}

	t.Run("sums matching records per key", func(t *testing.T) {
		records := []domain.RawRecord{
			rec("20230331", 1, "ASSET", 100),
			rec("20230331", 1, "EDEPDOM", 40),
			rec("20230331", 2, "ASSET", 50),
		}
		p := Aggregate(records, cfg)

		require.Len(t, p.Rows, 2)
		assert.Equal(t, domain.Num(100), p.Rows[0].Get("ASSET"))
		assert.Equal(t, domain.Num(40), p.Rows[0].Get("raw_EDEPDOM"))
		assert.Equal(t, domain.Num(50), p.Rows[1].Get("ASSET"))
	})

	t.Run("duplicate field records are summed not overwritten", func(t *testing.T) {
		records := []domain.RawRecord{
			rec("20230331", 1, "ASSET", 100),
			rec("20230331", 1, "ASSET", 25),
		}
		p := Aggregate(records, cfg)

		require.Len(t, p.Rows, 1)
		assert.Equal(t, domain.Num(125), p.Rows[0].Get("ASSET"))
	})

	t.Run("absent field sums to zero without error", func(t *testing.T) {
		records := []domain.RawRecord{rec("20230331", 1, "ASSET", 100)}
		p := Aggregate(records, cfg)

		require.Len(t, p.Rows, 1)
		assert.Equal(t, domain.Num(0), p.Rows[0].Get("DEPDOM"))
		assert.Equal(t, domain.Num(0), p.Rows[0].Get("raw_EDEPDOM"))
	})

	t.Run("unrequested fields are ignored", func(t *testing.T) {
		records := []domain.RawRecord{
			rec("20230331", 1, "ASSET", 100),
			rec("20230331", 1, "ROE", 12),
		}
		p := Aggregate(records, cfg)

		require.Len(t, p.Rows, 1)
		assert.False(t, p.Rows[0].Get("ROE").Valid)
	})

	t.Run("filer with only unrequested fields still gets an all-zero row", func(t *testing.T) {
		records := []domain.RawRecord{
			rec("20230331", 1, "ASSET", 100),
			rec("20230331", 2, "ROE", 12),
		}
		p := Aggregate(records, cfg)

		require.Len(t, p.Rows, 2)
		assert.Equal(t, domain.Cert(2), p.Rows[1].ID)
		assert.Equal(t, domain.Num(0), p.Rows[1].Get("ASSET"))
		assert.Equal(t, domain.Num(0), p.Rows[1].Get("raw_EDEPDOM"))
	})

	t.Run("periods before the start year are dropped", func(t *testing.T) {
		records := []domain.RawRecord{
			rec("19491231", 7, "ASSET", 1),
			rec("20230331", 1, "ASSET", 100),
		}
		p := Aggregate(records, cfg)

		require.Len(t, p.Rows, 1)
		assert.Equal(t, domain.Period("20230331"), p.Rows[0].Period)
	})

	t.Run("rows ordered by period then cert", func(t *testing.T) {
		records := []domain.RawRecord{
			rec("20230630", 2, "ASSET", 1),
			rec("20230331", 9, "ASSET", 1),
			rec("20230331", 3, "ASSET", 1),
		}
		p := Aggregate(records, cfg)

		require.Len(t, p.Rows, 3)
		assert.Equal(t, domain.Period("20230331"), p.Rows[0].Period)
		assert.Equal(t, domain.Cert(3), p.Rows[0].ID)
		assert.Equal(t, domain.Cert(9), p.Rows[1].ID)
		assert.Equal(t, domain.Period("20230630"), p.Rows[2].Period)
	})
}

func TestAnnualizedColumn(t *testing.T) {
	assert.Equal(t, "annualized_EDEPDOM", AnnualizedColumn("EDEPDOM"))
	assert.Equal(t, "annualized_EXP", AnnualizedColumn("raw_EXP"))
}
