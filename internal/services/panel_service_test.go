package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depositbeta/internal/config"
	"depositbeta/internal/errors"
	"depositbeta/internal/exporter"
	"depositbeta/internal/pipeline"
	"depositbeta/pkg/contracts/domain"
)

func serviceWithPanel(t *testing.T) *PanelService {
	t.Helper()
	cfg := config.Default()
	paths := config.PathsAt(t.TempDir())

	p := &domain.Panel{Columns: []string{"deposit_expense_rate", "ff_t"}}
	for i, q := range []domain.Period{"20220331", "20220630", "20220930", "20221231"} {
		row := domain.NewPanelRow(q, domain.Cert(14))
		row.Set("deposit_expense_rate", domain.Num(0.006+0.004*float64(i)))
		row.Set("ff_t", domain.Num(0.01+0.01*float64(i)))
		p.Rows = append(p.Rows, row)
	}
	tail := domain.NewPanelRow("20221231", domain.TailAggregate())
	tail.Set("deposit_expense_rate", domain.Num(0.01))
	tail.Set("ff_t", domain.Num(0.04))
	p.Rows = append(p.Rows, tail)

	require.NoError(t, exporter.NewPanelWriter(nil).Write(
		paths.PanelPath(cfg.Panel.RankThreshold), p))
	return NewPanelService(cfg, paths, nil)
}

func TestPanelServicePanel(t *testing.T) {
	t.Run("missing artifact", func(t *testing.T) {
		s := NewPanelService(config.Default(), config.PathsAt(t.TempDir()), nil)
		_, err := s.Panel(context.Background())
		assert.ErrorIs(t, err, errors.ErrPanelNotFound)
	})

	t.Run("loads and caches", func(t *testing.T) {
		s := serviceWithPanel(t)
		p1, err := s.Panel(context.Background())
		require.NoError(t, err)
		p2, err := s.Panel(context.Background())
		require.NoError(t, err)
		assert.Same(t, p1, p2)
	})
}

func TestPanelServiceInstitutions(t *testing.T) {
	s := serviceWithPanel(t)
	summaries, err := s.Institutions(context.Background())
	require.NoError(t, err)

	require.Len(t, summaries, 2)
	assert.Equal(t, "14", summaries[0].Institution)
	assert.Equal(t, 4, summaries[0].Rows)
	assert.Equal(t, "20220331", summaries[0].FirstPeriod)
	assert.Equal(t, "20221231", summaries[0].LastPeriod)
	assert.Equal(t, domain.TailAggregateLabel, summaries[1].Institution)
}

func TestPanelServiceInstitutionRows(t *testing.T) {
	s := serviceWithPanel(t)

	rows, err := s.InstitutionRows(context.Background(), domain.Cert(14))
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	_, err = s.InstitutionRows(context.Background(), domain.Cert(999))
	assert.ErrorIs(t, err, errors.ErrInstitutionAbsent)
}

func TestPanelServiceFitModel(t *testing.T) {
	s := serviceWithPanel(t)

	fit, err := s.FitModel(context.Background(), domain.Cert(14), "ff_t")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, fit.Beta, 1e-9)
	assert.Equal(t, 4, fit.Observations)
}

func TestPanelServiceRunBuildInvalidatesCache(t *testing.T) {
	s := serviceWithPanel(t)
	ctx := context.Background()

	p1, err := s.Panel(ctx)
	require.NoError(t, err)

	s.SetBuildFunc(func(ctx context.Context) (*pipeline.RunSummary, error) {
		return &pipeline.RunSummary{Status: pipeline.StageStatusCompleted}, nil
	})
	_, err = s.RunBuild(ctx)
	require.NoError(t, err)

	p2, err := s.Panel(ctx)
	require.NoError(t, err)
	assert.NotSame(t, p1, p2)
}
