// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the retrieval operations over HTTP: health,
// search, single download, and archive download. Requests are independent;
// the server keeps no state between them, so the client resubmits full
// paper data for downloads.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/pdiddy/paperfetch/internal/archive"
	"github.com/pdiddy/paperfetch/internal/fetch"
	"github.com/pdiddy/paperfetch/internal/source"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// Server routes API requests to the search, fetch, and archive components.
type Server struct {
	cfg     types.Config
	backend source.Backend
	fetcher *fetch.Fetcher
	builder *archive.Builder
	log     *zap.SugaredLogger
	router  *mux.Router
}

// New wires a Server from its components. A nil logger disables request
// logging.
func New(cfg types.Config, backend source.Backend, fetcher *fetch.Fetcher, builder *archive.Builder, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		cfg:     cfg,
		backend: backend,
		fetcher: fetcher,
		builder: builder,
		log:     log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodPost)
	r.HandleFunc("/api/download", s.handleDownload).Methods(http.MethodPost)
	r.HandleFunc("/api/download-zip", s.handleDownloadZip).Methods(http.MethodPost)
	r.Use(s.logRequests)
	s.router = r
	return s
}

// Handler returns the CORS-wrapped root handler. The browser client may be
// served from any origin.
func (s *Server) Handler() http.Handler {
	return cors.AllowAll().Handler(s.router)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	grace := s.cfg.Server.ShutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
