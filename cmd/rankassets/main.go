package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"depositbeta/internal/config"
	"depositbeta/internal/exporter"
	"depositbeta/internal/fetch"
	"depositbeta/internal/infrastructure"
	"depositbeta/internal/panel"
	"depositbeta/internal/rawstore"
)

func main() {
	dataRoot := flag.String("data", "", "root directory for data and logs (defaults to the executable directory)")
	resolveNames := flag.Bool("names", false, "resolve institution names from the FDIC API")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
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

	cfg.Logging.FilePath = paths.GetLogPath("rankassets.log")
	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("building rank reference",
		slog.String("filings_dir", paths.RawFilingsDir),
		slog.Int("start_year", cfg.Panel.StartYear))

	records, err := rawstore.LoadRawRecords(ctx, paths.RawFilingsDir, cfg.Panel.StartYear)
	if err != nil {
		logger.Error("failed to load raw filings", "error", err)
		os.Exit(1)
	}

	entries := panel.BestAssetRanks(records)
	logger.Info("asset ranks computed", slog.Int("institutions", len(entries)))

	if *resolveNames {
		client := fetch.NewFDICClient(cfg.Fetch, logger)
		periods := fetch.ReportDates(cfg.Panel.StartYear, time.Now())
		if err := client.AnnotateNames(ctx, entries, periods); err != nil {
			logger.Error("failed to resolve institution names", "error", err)
			os.Exit(1)
		}
	}

	if err := exporter.WriteRankReference(paths.RankReferencePath(), entries, logger); err != nil {
		logger.Error("failed to write rank reference", "error", err)
		os.Exit(1)
	}
}

func resolvePaths(root string) (*config.Paths, error) {
	if root != "" {
		return config.PathsAt(root), nil
	}
	return config.GetPaths()
}
