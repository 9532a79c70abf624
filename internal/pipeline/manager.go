package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"depositbeta/internal/config"
	"depositbeta/internal/infrastructure"
)

// Manager executes a panel build end to end.
type Manager struct {
	cfg     *config.Config
	paths   *config.Paths
	stages  []Stage
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithTracer enables per-stage spans.
func WithTracer(tracer trace.Tracer) ManagerOption {
	return func(m *Manager) { m.tracer = tracer }
}

// WithMetrics enables stage metrics recording.
func WithMetrics(metrics *infrastructure.PipelineMetrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// WithStages overrides the default stage sequence. Used by tests.
func WithStages(stages []Stage) ManagerOption {
	return func(m *Manager) { m.stages = stages }
}

// NewManager creates a Manager running the standard build stages.
func NewManager(cfg *config.Config, paths *config.Paths, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:    cfg,
		paths:  paths,
		stages: BuildStages(cfg, paths),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes every stage in order. The first stage failure aborts the run;
// the returned summary still lists every stage with its final status.
func (m *Manager) Run(ctx context.Context) (*RunSummary, error) {
	runID := uuid.New().String()
	ctx = infrastructure.WithTraceID(ctx, runID)
	logger := m.logger.With(slog.String("run_id", runID))

	state := &RunState{RunID: runID}
	summary := &RunSummary{RunID: runID, Status: StageStatusActive}
	start := time.Now()

	logger.InfoContext(ctx, "panel build started",
		slog.Int("rank_threshold", m.cfg.Panel.RankThreshold),
		slog.Int("start_year", m.cfg.Panel.StartYear),
		slog.Int("stages", len(m.stages)))

	var runErr error
	for _, stage := range m.stages {
		ss := NewStageState(stage.ID(), stage.Name())
		summary.Stages = append(summary.Stages, ss)

		if runErr != nil {
			ss.Status = StageStatusSkipped
			continue
		}
		if err := ctx.Err(); err != nil {
			ss.Fail(err)
			runErr = err
			continue
		}

		runErr = m.runStage(ctx, logger, stage, ss, state)
	}

	summary.Duration = time.Since(start)
	if state.Panel != nil {
		summary.Rows = len(state.Panel.Rows)
		summary.Columns = len(state.Panel.Columns)
	}
	summary.OutputPath = state.OutputPath

	if runErr != nil {
		summary.Status = StageStatusFailed
		if m.metrics != nil {
			m.metrics.PipelineErrors.Add(ctx, 1)
		}
		logger.ErrorContext(ctx, "panel build failed",
			slog.Duration("duration", summary.Duration.Round(time.Millisecond)),
			slog.String("error", runErr.Error()))
		return summary, fmt.Errorf("panel build %s failed: %w", runID, runErr)
	}

	summary.Status = StageStatusCompleted
	if m.metrics != nil {
		m.metrics.PanelRowsWritten.Add(ctx, int64(summary.Rows),
			metric.WithAttributes(attribute.Int("rank_threshold", m.cfg.Panel.RankThreshold)))
	}
	logger.InfoContext(ctx, "panel build completed",
		slog.Int("rows", summary.Rows),
		slog.Int("columns", summary.Columns),
		slog.String("output", summary.OutputPath),
		slog.Duration("duration", summary.Duration.Round(time.Millisecond)))
	return summary, nil
}

func (m *Manager) runStage(ctx context.Context, logger *slog.Logger, stage Stage, ss *StageState, state *RunState) error {
	if m.tracer != nil {
		var span trace.Span
		ctx, span = m.tracer.Start(ctx, "pipeline."+stage.ID())
		defer span.End()
	}

	ss.Start()
	logger.InfoContext(ctx, "stage started", slog.String("stage", stage.ID()))

	err := stage.Run(ctx, state)
	duration := ss.Duration()
	if m.metrics != nil {
		m.metrics.RecordStage(ctx, stage.ID(), duration, err)
	}

	if err != nil {
		ss.Fail(err)
		logger.ErrorContext(ctx, "stage failed",
			slog.String("stage", stage.ID()),
			slog.Duration("duration", duration.Round(time.Millisecond)),
			slog.String("error", err.Error()))
		return fmt.Errorf("stage %s: %w", stage.ID(), err)
	}

	ss.Complete("")
	logger.InfoContext(ctx, "stage completed",
		slog.String("stage", stage.ID()),
		slog.Duration("duration", duration.Round(time.Millisecond)))
	return nil
}
