// Package server exposes the log catalog over HTTP.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/five82/logmon/internal/catalog"
)

// Response headers set by the server.
const (
	HeaderCatalogID      = "X-Catalog-ID"
	HeaderPartialContent = "X-Partial-Content"
)

// Server routes API and file requests to a catalog service.
type Server struct {
	svc    *catalog.Service
	logger *zap.Logger
	router chi.Router
}

// New builds the router for svc.
func New(svc *catalog.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:    svc,
		logger: logger.With(zap.String("component", "http")),
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(s.catalogMiddleware)
	r.Use(middleware.GetHead)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found: "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/api/logs", s.handleLogs)
	r.Get("/api/config", s.handleConfig)
	r.Get("/api/tags", s.handleTags)
	r.Get("/api/refresh", s.handleRefresh)
	r.Post("/api/refresh", s.handleRefresh)
	// Anything else is a static asset under the base directory or a
	// catalogued log file.
	r.Get("/*", s.handleFile)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
