package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/pagescan/internal/config"
	"github.com/dgallion1/pagescan/internal/pipeline"
)

// Server is the HTTP API server for pagescan.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
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

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey))

		r.Get("/api/manifests", s.handleListManifests)
		r.Get("/api/manifests/{name}", s.handleGetManifest)

		r.Route("/api/scan", func(r chi.Router) {
			r.Post("/", s.handleScan)
			r.Get("/{jobID}", s.handleScanStatus)
			r.Get("/{jobID}/references", s.handleScanReferences)
			r.Get("/{jobID}/findings", s.handleScanFindings)
			r.Get("/{jobID}/markers", s.handleScanMarkers)
		})

		r.Get("/api/stats/scan", s.handleScanStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
