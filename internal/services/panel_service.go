// Package services holds the application services behind the HTTP handlers:
// serving the persisted panel, fitting deposit-beta models, and triggering
// rebuilds.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"depositbeta/internal/config"
	"depositbeta/internal/errors"
	"depositbeta/internal/exporter"
	"depositbeta/internal/pipeline"
	"depositbeta/internal/regression"
	"depositbeta/pkg/contracts/domain"
)

// InstitutionSummary describes one institution present in the panel.
type InstitutionSummary struct {
	Institution string `json:"institution"`
	Rows        int    `json:"rows"`
	FirstPeriod string `json:"first_period"`
	LastPeriod  string `json:"last_period"`
}

// PanelService serves the persisted panel and runs model fits against it.
// The panel is loaded lazily and cached until the artifact changes on disk
// or a build invalidates it.
type PanelService struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger

	mu        sync.RWMutex
	panel     *domain.Panel
	loadedAt  time.Time
	buildMu   sync.Mutex
	buildFunc func(ctx context.Context) (*pipeline.RunSummary, error)
}

// NewPanelService creates the service. The build function defaults to a
// full pipeline run and is swappable for tests.
func NewPanelService(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *PanelService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PanelService{cfg: cfg, paths: paths, logger: logger}
	s.buildFunc = func(ctx context.Context) (*pipeline.RunSummary, error) {
		return pipeline.NewManager(cfg, paths, pipeline.WithLogger(logger)).Run(ctx)
	}
	return s
}

// SetBuildFunc overrides how builds run. Used by tests and by callers that
// want metrics or tracing wired into the manager.
func (s *PanelService) SetBuildFunc(fn func(ctx context.Context) (*pipeline.RunSummary, error)) {
	s.buildFunc = fn
}

func (s *PanelService) panelPath() string {
	return s.paths.PanelPath(s.cfg.Panel.RankThreshold)
}

// Panel returns the current panel, loading it from disk if the cache is
// empty or stale.
func (s *PanelService) Panel(ctx context.Context) (*domain.Panel, error) {
	path := s.panelPath()
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.ErrPanelNotFound
	}

	s.mu.RLock()
	if s.panel != nil && !info.ModTime().After(s.loadedAt) {
		p := s.panel
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel != nil && !info.ModTime().After(s.loadedAt) {
		return s.panel, nil
	}

	p, err := exporter.LoadPanel(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to load panel", err)
	}
	s.panel = p
	s.loadedAt = time.Now()
	s.logger.InfoContext(ctx, "panel loaded",
		slog.String("path", path),
		slog.Int("rows", len(p.Rows)))
	return p, nil
}

// Institutions lists the institutions in the panel in row order.
func (s *PanelService) Institutions(ctx context.Context) ([]InstitutionSummary, error) {
	p, err := s.Panel(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[domain.InstitutionID]int)
	var summaries []InstitutionSummary
	for _, row := range p.Rows {
		i, ok := index[row.ID]
		if !ok {
			index[row.ID] = len(summaries)
			summaries = append(summaries, InstitutionSummary{
				Institution: row.ID.String(),
				FirstPeriod: row.Period.String(),
				LastPeriod:  row.Period.String(),
			})
			i = index[row.ID]
		}
		summaries[i].Rows++
		if row.Period.String() < summaries[i].FirstPeriod {
			summaries[i].FirstPeriod = row.Period.String()
		}
		if row.Period.String() > summaries[i].LastPeriod {
			summaries[i].LastPeriod = row.Period.String()
		}
	}
	return summaries, nil
}

// InstitutionRows returns the panel rows of one institution.
func (s *PanelService) InstitutionRows(ctx context.Context, id domain.InstitutionID) ([]domain.PanelRow, error) {
	p, err := s.Panel(ctx)
	if err != nil {
		return nil, err
	}
	var rows []domain.PanelRow
	for _, row := range p.Rows {
		if row.ID == id {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, errors.ErrInstitutionAbsent
	}
	return rows, nil
}

// FitModel regresses the deposit expense rate of one institution against a
// macro rate column.
func (s *PanelService) FitModel(ctx context.Context, id domain.InstitutionID, rateColumn string) (*regression.Fit, error) {
	p, err := s.Panel(ctx)
	if err != nil {
		return nil, err
	}
	fit, err := regression.FitDepositBeta(p, id, "deposit_expense_rate", rateColumn)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "model fitted",
		slog.String("institution", id.String()),
		slog.String("rate_column", rateColumn),
		slog.Float64("beta", fit.Beta),
		slog.Int("observations", fit.Observations))
	return fit, nil
}

// RunBuild executes a full panel build. Concurrent build requests queue
// behind each other; the panel cache is invalidated on success.
func (s *PanelService) RunBuild(ctx context.Context) (*pipeline.RunSummary, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	summary, err := s.buildFunc(ctx)
	if err != nil {
		return summary, fmt.Errorf("build failed: %w", err)
	}

	s.mu.Lock()
	s.panel = nil
	s.mu.Unlock()
	return summary, nil
}
