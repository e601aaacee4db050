package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aquaview.dev/monitor/internal/ingest"
	"aquaview.dev/monitor/pkg/metrics"
	"aquaview.dev/monitor/pkg/quality"
)

// ReportGenerator produces a plain-language report for the given parameter
// values. Implemented by report.Client.
type ReportGenerator interface {
	Generate(ctx context.Context, values map[quality.ParameterKind]float64) (string, error)
}

// Server serves the monitoring dashboard: the HTML page, the JSON API and
// the websocket stream of consolidated views.
type Server struct {
	logger      *slog.Logger
	config      *ServerConfig
	httpServer  *http.Server
	ingestor    *ingest.Ingestor
	reports     ReportGenerator
	hub         *hub
	metrics     *metrics.DashboardMetrics
	unsubscribe func()
}

// ServerConfig holds the configuration for the Server.
type ServerConfig struct {
	Logger *slog.Logger

	// HTTP server configuration
	HTTPPort int

	// Ingestor supplies consolidated views and accepts settings changes.
	Ingestor *ingest.Ingestor

	// Reports is optional; when nil the report endpoint answers 503.
	Reports ReportGenerator

	// Metrics is optional; when nil no metrics are recorded.
	Metrics *metrics.DashboardMetrics
}

// NewServer creates a new dashboard Server instance.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.HTTPPort <= 0 {
		return nil, errors.New("HTTP port must be positive")
	}

	if cfg.Ingestor == nil {
		return nil, errors.New("ingestor cannot be nil")
	}

	return &Server{
		logger:   cfg.Logger,
		config:   cfg,
		ingestor: cfg.Ingestor,
		reports:  cfg.Reports,
		hub:      newHub(cfg.Logger, cfg.Metrics),
		metrics:  cfg.Metrics,
	}, nil
}

// Run starts the dashboard server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting dashboard server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go s.hub.run(ctx)

	// Forward consolidated views to websocket clients.
	s.unsubscribe = s.ingestor.SubscribeViews(s.hub.broadcastView)

	mux := s.Handler()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "address", s.httpServer.Addr)

	httpErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(httpErr)
	}()

	s.logger.Info("dashboard server started successfully")

	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
		s.logger.Info("context canceled")
	case err := <-httpErr:
		if err != nil {
			s.logger.Error("HTTP server error", "error", err)
			cancel()
			return err
		}
	}

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down dashboard server")

	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown HTTP server", "error", err)
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		s.logger.Info("HTTP server stopped")
	}

	s.logger.Info("dashboard server shutdown completed successfully")
	return nil
}

// Handler returns the configured route handler.
func (s *Server) Handler() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check and metrics
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	// JSON API
	mux.HandleFunc("GET /api/status", s.instrument("/api/status", s.handleStatus))
	mux.HandleFunc("GET /api/history/{kind}", s.instrument("/api/history", s.handleHistory))
	mux.HandleFunc("GET /api/alerts", s.instrument("/api/alerts", s.handleAlerts))
	mux.HandleFunc("GET /api/standards", s.instrument("/api/standards", s.handleStandards))
	mux.HandleFunc("POST /api/report", s.instrument("/api/report", s.handleReport))
	mux.HandleFunc("GET /api/settings", s.instrument("/api/settings", s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.instrument("/api/settings", s.handlePutSettings))

	// Websocket stream
	mux.HandleFunc("GET /ws", s.handleWS)

	// Dashboard page (catch-all, must be last)
	mux.HandleFunc("GET /{$}", s.instrument("/", s.handleIndex))

	return mux
}
