// internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"

	"borehole-analytics/internal/common/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("POST /{$}", s.maxBody(s.handleUpload))
	mux.HandleFunc("GET /uploads/{name}", s.handleServeUpload)
	mux.HandleFunc("GET /charts/yield-vs-cost.png", s.handleChart)
	mux.HandleFunc("POST /insights", s.handleInsights)
	mux.HandleFunc("GET /api/uploads", s.handleRecentUploads)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.requestLogger(mux)
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully within the configured window.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  config.GetDuration(s.cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(s.cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{
			"port": s.cfg.Server.Port,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		config.GetDuration(s.cfg.Server.ShutdownTimeout))
	defer cancel()

	s.logger.Info("shutting down http server", nil)
	return srv.Shutdown(shutdownCtx)
}
