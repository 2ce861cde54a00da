// Package frontend exposes the HTTP arrival surface of spec.md §6.1:
// POST /create submits a task to the arrival pipeline and blocks for its
// placement outcome, GET /health reports liveness, and GET /metrics
// exposes the Prometheus registry.
package frontend

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fricosched/frico/internal/arrival"
	"github.com/fricosched/frico/internal/telemetry"
)

// Server wires the arrival pipeline to an HTTP surface.
type Server struct {
	pipeline   *arrival.Pipeline
	metrics    *telemetry.Metrics
	logger     *zap.SugaredLogger
	httpServer *http.Server
}

// New builds a Server listening on addr. submitTimeout bounds how long
// POST /create waits for the pipeline to process a request before
// returning a 504; zero means wait indefinitely, matching spec.md §6.1's
// default.
func New(addr string, pipeline *arrival.Pipeline, metrics *telemetry.Metrics, logger *zap.SugaredLogger, submitTimeout time.Duration) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Server{pipeline: pipeline, metrics: metrics, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/create", s.handleCreate(submitTimeout)).Methods(http.MethodPost).Name("create")
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet).Name("health")
	if metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet).Name("metrics")
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // POST /create can legitimately block for a long time
	}
	return s
}

// ListenAndServe blocks, serving until the process is asked to stop via
// Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Infow("http front-end listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
