package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"clubhub/internal/api/health"
	"clubhub/internal/metrics"
	usageservice "clubhub/internal/services/usage"
	"clubhub/pkg/errors"
	"clubhub/pkg/logger"
)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Port        int
	ServiceName string
	Version     string
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes.
// Probe, metrics and root endpoints stay outside the rate limiter so
// monitoring can never be throttled.
func NewServer(
	cfg ServerConfig,
	healthHandler *health.Handler,
	usageHandler *UsageHandler,
	catalogHandler *CatalogHandler,
	manager *usageservice.Manager,
	log *logger.Logger,
) *Server {
	mux := http.NewServeMux()

	// Health check endpoints (Kubernetes probes)
	mux.HandleFunc("/health", healthHandler.HandleHealth)
	mux.HandleFunc("/ready", healthHandler.HandleReadiness)
	mux.HandleFunc("/live", healthHandler.HandleLiveness)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", metrics.Handler())

	// Rate-limited API surface
	v1 := http.NewServeMux()
	v1.HandleFunc("GET /v1/usage/status", usageHandler.HandleStatus)
	v1.HandleFunc("POST /v1/usage", usageHandler.HandleRecord)
	v1.HandleFunc("GET /v1/usage/models", usageHandler.HandleModels)
	v1.HandleFunc("GET /v1/usage/recent", usageHandler.HandleRecent)
	v1.HandleFunc("GET /v1/usage/stats", usageHandler.HandleStats)
	v1.HandleFunc("POST /v1/usage/ratelimit/reset", usageHandler.HandleResetRateLimit)
	v1.HandleFunc("GET /v1/models", catalogHandler.HandleList)
	v1.HandleFunc("GET /v1/models/{id}", catalogHandler.HandleGet)
	v1.HandleFunc("POST /v1/models/sync", catalogHandler.HandleSync)
	v1.HandleFunc("GET /v1/models/sync/history", catalogHandler.HandleSyncHistory)

	var v1Handler http.Handler = v1
	if manager != nil {
		v1Handler = rateLimitMiddleware(manager, log)(v1Handler)
	}
	mux.Handle("/v1/", loggingMiddleware(log)(v1Handler))

	// Root endpoint (service info)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"service":"%s","version":"%s","status":"running"}`,
			cfg.ServiceName, cfg.Version)
	})

	port := 8080
	if cfg.Port > 0 {
		port = cfg.Port
	}

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("HTTP server stopped")
	return nil
}
