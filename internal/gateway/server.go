// Package gateway implements the authenticated reverse-proxy HTTP server.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/llamagate/llamagate/internal/auth"
	"github.com/llamagate/llamagate/internal/config"
	"github.com/llamagate/llamagate/internal/metrics"
	"github.com/llamagate/llamagate/internal/upstream"
)

// Server is the gateway HTTP server.
type Server struct {
	httpServer *http.Server
}

// New constructs a Server from the given config.
func New(cfg *config.Config) *Server {
	client := upstream.NewClient(cfg.UpstreamURL, cfg.RequestTimeout)
	cred := auth.NewCredential(cfg.APIKey)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector()
	}

	chat := NewHandler(cred, client, cfg.RequestTimeout, collector)

	router := mux.NewRouter()
	router.Handle("/", chat).Methods(http.MethodPost)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	if collector != nil {
		router.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	}

	var handler http.Handler = router
	handler = loggingMiddleware(handler, collector)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: cfg.RequestTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start begins listening and blocks until the server is stopped.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Handler returns the underlying http.Handler (for use in tests with
// httptest.NewServer).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
