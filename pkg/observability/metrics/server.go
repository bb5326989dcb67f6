package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/extlabs/ext/pkg/observability/logger"
)

// Server exposes the metrics registry on a dedicated listener, kept off the
// public port so scrape traffic never competes with application requests.
type Server struct {
	srv *http.Server
	log logger.Logger
}

// NewServer creates a metrics server bound to host:port serving /metrics.
func NewServer(host string, port int, registry *Registry, log logger.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	s.log.Info("metrics server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
