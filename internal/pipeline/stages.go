package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"depositbeta/internal/config"
	"depositbeta/internal/exporter"
	"depositbeta/internal/panel"
	"depositbeta/internal/rawstore"
)

// Stage IDs, in execution order.
const (
	StageIDLoad      = "load"
	StageIDAggregate = "aggregate"
	StageIDRank      = "rank"
	StageIDTail      = "collapse_tail"
	StageIDAnnualize = "annualize"
	StageIDRatios    = "derive_ratios"
	StageIDAlign     = "align_rates"
	StageIDPersist   = "persist"
)

// LoadStage reads every raw input up front. Schema problems in any input
// surface here, before a single transformation has run.
type LoadStage struct {
	cfg   *config.Config
	paths *config.Paths
}

func NewLoadStage(cfg *config.Config, paths *config.Paths) *LoadStage {
	return &LoadStage{cfg: cfg, paths: paths}
}

func (s *LoadStage) ID() string   { return StageIDLoad }
func (s *LoadStage) Name() string { return "Load Raw Inputs" }

func (s *LoadStage) Run(ctx context.Context, state *RunState) error {
	records, err := rawstore.LoadRawRecords(ctx, s.paths.RawFilingsDir, s.cfg.Panel.StartYear)
	if err != nil {
		return err
	}
	state.Records = records

	rates, err := rawstore.LoadRateSeries(s.paths.RatesFile, config.RateFields)
	if err != nil {
		return err
	}
	state.Rates = rates

	slog.InfoContext(ctx, "raw inputs loaded",
		slog.Int("records", len(records)),
		slog.Int("rate_observations", rates.Len()))
	return nil
}

// AggregateStage builds the base panel: one row per institution and period,
// duplicate observations summed, requested-but-absent fields zero.
type AggregateStage struct {
	cfg *config.Config
}

func NewAggregateStage(cfg *config.Config) *AggregateStage {
	return &AggregateStage{cfg: cfg}
}

func (s *AggregateStage) ID() string   { return StageIDAggregate }
func (s *AggregateStage) Name() string { return "Aggregate Filings" }

func (s *AggregateStage) Run(ctx context.Context, state *RunState) error {
	state.Panel = panel.Aggregate(state.Records, panel.AggregateConfig{
		AnnualizeFields:    s.cfg.Panel.AnnualizeFields(),
		NonAnnualizeFields: s.cfg.Panel.NonAnnualizeFields(),
		StartYear:          s.cfg.Panel.StartYear,
	})
	if len(state.Panel.Rows) == 0 {
		return fmt.Errorf("aggregation produced an empty panel")
	}
	return nil
}

// RankStage resolves each institution's best-ever asset rank. An existing
// rank reference table is reused; otherwise ranks are computed from the
// loaded records and the reference is persisted for the next run.
type RankStage struct {
	cfg   *config.Config
	paths *config.Paths
}

func NewRankStage(cfg *config.Config, paths *config.Paths) *RankStage {
	return &RankStage{cfg: cfg, paths: paths}
}

func (s *RankStage) ID() string   { return StageIDRank }
func (s *RankStage) Name() string { return "Resolve Asset Ranks" }

func (s *RankStage) Run(ctx context.Context, state *RunState) error {
	refPath := s.paths.RankReferencePath()
	switch _, err := os.Stat(refPath); {
	case err == nil:
		entries, err := rawstore.LoadRankReference(refPath)
		if err != nil {
			return err
		}
		state.Ranks = entries
		slog.InfoContext(ctx, "rank reference loaded",
			slog.String("path", refPath),
			slog.Int("institutions", len(entries)))
	case errors.Is(err, fs.ErrNotExist):
		state.Ranks = panel.BestAssetRanks(state.Records)
		if err := exporter.WriteRankReference(refPath, state.Ranks, slog.Default()); err != nil {
			return err
		}
		slog.InfoContext(ctx, "rank reference computed",
			slog.String("path", refPath),
			slog.Int("institutions", len(state.Ranks)))
	default:
		// An unreadable existing reference must not be silently recomputed
		// and overwritten.
		return fmt.Errorf("failed to stat rank reference %s: %w", refPath, err)
	}

	state.RankedCerts = panel.RankedCerts(state.Ranks, s.cfg.Panel.RankThreshold)
	return nil
}

// TailStage collapses every institution outside the rank threshold into the
// per-period small-bank aggregate.
type TailStage struct{}

func (TailStage) ID() string   { return StageIDTail }
func (TailStage) Name() string { return "Collapse Tail" }

func (TailStage) Run(ctx context.Context, state *RunState) error {
	before := len(state.Panel.Rows)
	state.Panel = panel.CollapseTail(state.Panel, state.RankedCerts)
	slog.InfoContext(ctx, "tail collapsed",
		slog.Int("rows_before", before),
		slog.Int("rows_after", len(state.Panel.Rows)))
	return nil
}

// AnnualizeStage converts the year-to-date flow fields into annualized
// quarterly flows.
type AnnualizeStage struct {
	cfg *config.Config
}

func NewAnnualizeStage(cfg *config.Config) *AnnualizeStage {
	return &AnnualizeStage{cfg: cfg}
}

func (s *AnnualizeStage) ID() string   { return StageIDAnnualize }
func (s *AnnualizeStage) Name() string { return "Annualize Flows" }

func (s *AnnualizeStage) Run(ctx context.Context, state *RunState) error {
	panel.Annualize(state.Panel, s.cfg.Panel.AnnualizeFields())
	return nil
}

// RatioStage derives the ratio columns, deposit expense rate included.
type RatioStage struct{}

func (RatioStage) ID() string   { return StageIDRatios }
func (RatioStage) Name() string { return "Derive Ratios" }

func (RatioStage) Run(ctx context.Context, state *RunState) error {
	panel.DeriveRatios(state.Panel, config.RatioSpecs)
	return nil
}

// AlignStage prepares the macro rate series and joins it onto the panel as
// of each reporting date.
type AlignStage struct{}

func (AlignStage) ID() string   { return StageIDAlign }
func (AlignStage) Name() string { return "Align Macro Rates" }

func (AlignStage) Run(ctx context.Context, state *RunState) error {
	panel.PrepareRates(state.Rates)
	panel.AlignRates(state.Panel, state.Rates)
	return nil
}

// PersistStage sorts and writes the finished panel. This is the only stage
// that touches the output artifact.
type PersistStage struct {
	cfg    *config.Config
	paths  *config.Paths
	writer *exporter.PanelWriter
}

func NewPersistStage(cfg *config.Config, paths *config.Paths) *PersistStage {
	return &PersistStage{cfg: cfg, paths: paths, writer: exporter.NewPanelWriter(slog.Default())}
}

func (s *PersistStage) ID() string   { return StageIDPersist }
func (s *PersistStage) Name() string { return "Persist Panel" }

func (s *PersistStage) Run(ctx context.Context, state *RunState) error {
	path := s.paths.PanelPath(s.cfg.Panel.RankThreshold)
	if err := s.writer.Write(path, state.Panel); err != nil {
		return err
	}
	state.OutputPath = path
	return nil
}

// BuildStages returns the full stage sequence of a panel build.
func BuildStages(cfg *config.Config, paths *config.Paths) []Stage {
	return []Stage{
		NewLoadStage(cfg, paths),
		NewAggregateStage(cfg),
		NewRankStage(cfg, paths),
		TailStage{},
		NewAnnualizeStage(cfg),
		RatioStage{},
		AlignStage{},
		NewPersistStage(cfg, paths),
	}
}
