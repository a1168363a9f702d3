package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/pagescan/internal/manifest"
)

func (s *Server) handleScanStats(w http.ResponseWriter, r *http.Request) {
	stats := s.orchestrator.Stats()
	if stats == nil {
		jsonError(w, "scan stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       stats.Snapshot(),
	})
}

func (s *Server) handleListManifests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"manifests": manifest.BuiltinSummaries()})
}

func (s *Server) handleGetManifest(w http.ResponseWriter, r *http.Request) {
	m, err := manifest.Builtin(chi.URLParam(r, "name"))
	if err != nil {
		writeManifestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
