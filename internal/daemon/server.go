package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/jerzydziewierz/second-opinion/internal/advisor"
	"github.com/jerzydziewierz/second-opinion/internal/config"
	"github.com/jerzydziewierz/second-opinion/internal/observability"
	advicerpc "github.com/jerzydziewierz/second-opinion/internal/rpc/advice"
	toolrpc "github.com/jerzydziewierz/second-opinion/internal/rpc/tools"
)

// Server exposes tool calls over HTTP: Connect CallTool plus health, metrics and schemas.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	advisor *advisor.Advisor
	metrics *observability.Metrics
}

// NewServer constructs an HTTP server around an assembled advisor.
func NewServer(cfg *config.Config, adv *advisor.Advisor, logger *zap.Logger, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, logger: logger, advisor: adv, metrics: metrics}
}

// Handler returns the HTTP handler with h2c enabled for Connect clients.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.Handle("/tools/schemas", toolrpc.SchemaHandler{Source: s.advisor})

	path, handler := advicerpc.NewConnectHandler(s.advisor, s.metrics)
	mux.Handle(path, handler)

	return h2c.NewHandler(mux, &http2.Server{})
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting second-opinion http server", zap.String("addr", s.cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down second-opinion http server")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	// in-flight backend calls get up to 30s to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled || s.metrics == nil {
		http.NotFound(w, r)
		return
	}

	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
