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
)

func main() {
	dataRoot := flag.String("data", "", "root directory for data and logs (defaults to the executable directory)")
	skipFilings := flag.Bool("skip-filings", false, "skip the FDIC filing download")
	fetchRates := flag.Bool("rates", false, "also refresh the FRED rate series")
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

	cfg.Logging.FilePath = paths.GetLogPath("fdicfetch.log")
	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*skipFilings {
		if err := fetchFilings(ctx, cfg, paths, logger); err != nil {
			logger.Error("filing fetch failed", "error", err)
			os.Exit(1)
		}
	}

	if *fetchRates {
		if err := fetchRateSeries(ctx, cfg, paths, logger); err != nil {
			logger.Error("rate fetch failed", "error", err)
			os.Exit(1)
		}
	}
}

// fetchFilings downloads every missing reporting period. Periods whose file
// already exists are skipped, so the command is resumable.
func fetchFilings(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger) error {
	client := fetch.NewFDICClient(cfg.Fetch, logger)
	periods := fetch.ReportDates(cfg.Panel.StartYear, time.Now())

	fetched, skipped := 0, 0
	for _, period := range periods {
		path := paths.RawFilingPath(period.String() + ".csv")
		if _, err := os.Stat(path); err == nil {
			skipped++
			continue
		}

		records, err := client.FetchPeriod(ctx, period, config.DownloadFields)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			logger.Info("no filings for period", slog.String("period", period.String()))
			continue
		}
		if err := exporter.WriteRawFiling(path, period, records); err != nil {
			return err
		}
		fetched++
	}

	logger.Info("filing fetch complete",
		slog.Int("fetched", fetched),
		slog.Int("skipped", skipped),
		slog.Int("periods", len(periods)))
	return nil
}

func fetchRateSeries(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger) error {
	client := fetch.NewFREDClient(cfg.Fetch, logger)
	start := time.Date(cfg.Panel.StartYear, 1, 1, 0, 0, 0, 0, time.UTC)

	rs, err := client.FetchSeries(ctx, config.RateFields, start)
	if err != nil {
		return err
	}
	if err := exporter.WriteRateSeries(paths.RatesFile, rs); err != nil {
		return err
	}

	logger.Info("rate fetch complete",
		slog.String("path", paths.RatesFile),
		slog.Int("observations", rs.Len()))
	return nil
}

func resolvePaths(root string) (*config.Paths, error) {
	if root != "" {
		return config.PathsAt(root), nil
	}
	return config.GetPaths()
}
