// Package api serves the import endpoint and the read-side queries over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(addr string, h *Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.With("component", "http"),
	}
}

func NewRouter(h *Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)

	r.Route("/messages", func(r chi.Router) {
		r.Get("/", h.ListMessages)
		r.Post("/bulk", h.BulkImport)
		r.Get("/{id}", h.GetMessage)
	})
	r.Get("/properties/{id}", h.GetProperty)
	r.Get("/stats", h.Stats)
	r.Get("/agents", h.Agents)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/areas", h.Areas)
		r.Get("/property-types", h.PropertyTypes)
		r.Get("/phone-operators", h.PhoneOperators)
	})

	if h.ingest != nil {
		r.Get("/ingest/status", h.IngestStatus)
		r.Post("/ingest/run", h.IngestRun)
		r.Post("/ingest/pause", h.IngestPause)
		r.Post("/ingest/resume", h.IngestResume)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "route not found")
	})

	return r
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
