package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"depositbeta/internal/config"
	"depositbeta/internal/infrastructure"
	"depositbeta/internal/pipeline"
)

func main() {
	dataRoot := flag.String("data", "", "root directory for data and logs (defaults to the executable directory)")
	threshold := flag.Int("threshold", 0, "rank threshold override")
	startYear := flag.Int("start-year", 0, "earliest reporting year override")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *threshold > 0 {
		cfg.Panel.RankThreshold = *threshold
	}
	if *startYear > 0 {
		cfg.Panel.StartYear = *startYear
	}

	paths, err := resolvePaths(*dataRoot)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	cfg.Logging.FilePath = paths.GetLogPath("panelbuild.log")
	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := pipeline.NewManager(cfg, paths, pipeline.WithLogger(logger))
	summary, err := manager.Run(ctx)
	if err != nil {
		logger.Error("panel build failed", "error", err)
		os.Exit(1)
	}

	logger.Info("panel build finished",
		slog.String("output", summary.OutputPath),
		slog.Int("rows", summary.Rows),
		slog.Int("columns", summary.Columns))
}

func resolvePaths(root string) (*config.Paths, error) {
	if root != "" {
		return config.PathsAt(root), nil
	}
	return config.GetPaths()
}
