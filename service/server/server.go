package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solbound/actiond/service/config"
	"github.com/solbound/actiond/service/events"
	"github.com/solbound/actiond/service/metrics"
	"github.com/solbound/actiond/service/solana"
)

// Paths of the action endpoints. The GET metadata hrefs and the actions.json
// rules both reference these, so they live in one place.
const (
	memoActionPath     = "/api/actions/memo"
	transferActionPath = "/api/actions/transfer-sol"
)

// Server represents the HTTP server for the actions service.
type Server struct {
	addr      string
	cfg       *config.Config
	chain     *solana.Client
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	server    *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The publisher is optional - if nil, action events won't be published.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, cfg *config.Config, chain *solana.Client, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:      addr,
		cfg:       cfg,
		chain:     chain,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Memo action routes
	mux.Handle("GET "+memoActionPath, s.instrument(memoActionPath, handleMemoGet(s.cfg, s.logger)))
	mux.Handle("POST "+memoActionPath, s.instrument(memoActionPath, handleMemoPost(s.cfg, s.chain, s.publisher, s.metrics, s.logger)))

	// Transfer action routes
	mux.Handle("GET "+transferActionPath, s.instrument(transferActionPath, handleTransferGet(s.cfg, s.logger)))
	mux.Handle("POST "+transferActionPath, s.instrument(transferActionPath, handleTransferPost(s.cfg, s.chain, s.publisher, s.metrics, s.logger)))

	// Actions discovery document and icon
	mux.Handle("GET /actions.json", handleActionRules(s.logger))
	mux.HandleFunc("GET /icon.svg", handleIcon())

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	// Wrap mux with CORS middleware
	handler := corsMiddleware(mux)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// instrument wraps a handler with HTTP metrics collection.
func (s *Server) instrument(name string, h http.Handler) http.Handler {
	return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.publisher != nil {
		s.publisher.Close()
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds the Actions CORS headers to all responses and handles
// OPTIONS preflight requests. Error responses carry the same headers as
// success responses so wallet UIs can read the error body cross-origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Pass through to next handler
		next.ServeHTTP(w, r)
	})
}

// setCORSHeaders applies the header set the Actions contract requires on
// every response.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Content-Encoding, Accept-Encoding")
	w.Header().Set("Access-Control-Max-Age", "3600")
}
