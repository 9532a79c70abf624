package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"depositbeta/internal/config"
	"depositbeta/internal/infrastructure"
	"depositbeta/internal/middleware"
	"depositbeta/internal/services"
)

// Server is the panel API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        config.ServerConfig
}

// NewServer wires the router, middleware chain, and handlers.
func NewServer(
	cfg *config.Config,
	service *services.PanelService,
	logger *slog.Logger,
	providers *infrastructure.OTelProviders,
	metrics *infrastructure.PipelineMetrics,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if providers != nil && providers.Tracer != nil {
		r.Use(middleware.NewOTelMiddleware(providers, metrics).Handler)
	}
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	if cfg.Server.RateLimitRPS > 0 {
		r.Use(middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger).Handler)
	}
	r.Use(middleware.Compress(5))

	r.Get("/healthz", HealthHandler(time.Now()))
	if providers != nil && providers.PrometheusHTTP != nil {
		r.Handle("/metrics", providers.PrometheusHTTP)
	}
	r.Mount("/api", NewHandler(service, logger, metrics).Routes())

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		logger: logger,
		cfg:    cfg.Server,
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
