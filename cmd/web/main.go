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
	"depositbeta/internal/services"
	apihttp "depositbeta/internal/transport/http"
)

func main() {
	dataRoot := flag.String("data", "", "root directory for data and logs (defaults to the executable directory)")
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

	cfg.Logging.FilePath = paths.GetLogPath("web.log")
	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(nil, logger)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}

	var metrics *infrastructure.PipelineMetrics
	if providers.Meter != nil {
		metrics, err = infrastructure.CreatePipelineMetrics(providers.Meter)
		if err != nil {
			logger.Error("failed to create metrics", "error", err)
			os.Exit(1)
		}
	}

	service := services.NewPanelService(cfg, paths, logger)
	service.SetBuildFunc(func(ctx context.Context) (*pipeline.RunSummary, error) {
		manager := pipeline.NewManager(cfg, paths,
			pipeline.WithLogger(logger),
			pipeline.WithTracer(providers.Tracer),
			pipeline.WithMetrics(metrics))
		return manager.Run(ctx)
	})

	server := apihttp.NewServer(cfg, service, logger, providers, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx := context.Background()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown failed", "error", err)
	}
}

func resolvePaths(root string) (*config.Paths, error) {
	if root != "" {
		return config.PathsAt(root), nil
	}
	return config.GetPaths()
}
