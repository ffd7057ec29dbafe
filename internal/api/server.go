// Package api serves the certificate engine over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/a3tai/ahc-engine/internal/certificate"
	"github.com/a3tai/ahc-engine/internal/config"
)

// maxBodyBytes bounds a JSON request body. Templates are read from disk, so
// bodies only carry submissions and overrides.
const maxBodyBytes = 4 << 20

// Server is the HTTP API server for the certificate engine.
type Server struct {
	router  chi.Router
	service *certificate.Service
	log     *slog.Logger
	cfg     *config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(service *certificate.Service, log *slog.Logger, cfg *config.Config) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		service: service,
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		r.Use(middleware.AllowContentType("application/json"))

		r.Get("/api/info", s.handleInfo)
		r.Get("/api/templates", s.handleListTemplates)
		r.Post("/api/detect", s.handleDetect)
		r.Post("/api/map", s.handleMap)
		r.Post("/api/crossouts", s.handleCrossouts)
		r.Post("/api/generate", s.handleGenerate)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": s.cfg.ServerName,
		"version": s.cfg.Version,
	})
}
