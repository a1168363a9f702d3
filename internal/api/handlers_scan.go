package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/pagescan/internal/manifest"
	"github.com/dgallion1/pagescan/internal/pipeline"
	"github.com/dgallion1/pagescan/internal/report"
	"github.com/dgallion1/pagescan/internal/source"
)

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !source.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	m, err := s.uploadManifest(r.FormValue("manifest"), r.FormValue("builtin"))
	if err != nil {
		writeManifestError(w, err)
		return
	}

	label := strings.TrimSpace(r.FormValue("label"))
	if label == "" && len(m.Documents) > 0 {
		label = m.Documents[0].Label
	}
	if label == "" {
		label = source.DefaultLabel(filename)
	}
	if len(m.Documents) == 0 {
		m.Documents = []manifest.Document{{Label: label, Path: filename}}
	}
	if err := m.Validate(); err != nil {
		writeManifestError(w, err)
		return
	}
	m.ApplyDefaults(s.cfg.ContextOptions(), s.cfg.ScanWorkers)

	job := pipeline.NewJob(m, filename, label, data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.log.Info("scan queued", "job_id", job.ID, "filename", filename, "manifest", m.Name, "bytes", len(data))
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"manifest": m.Name,
		"label":    label,
		"poll_url": fmt.Sprintf("/api/scan/%s", job.ID),
	})
}

// uploadManifest decodes an inline manifest or loads a built-in one.
// Validation is left to the caller so an upload can supply the document.
func (s *Server) uploadManifest(inline, builtin string) (*manifest.Manifest, error) {
	inline, builtin = strings.TrimSpace(inline), strings.TrimSpace(builtin)
	switch {
	case inline != "" && builtin != "":
		return nil, errBothManifests
	case inline != "":
		return manifest.Decode([]byte(inline))
	case builtin != "":
		return manifest.Builtin(builtin)
	}
	return nil, errNoManifest
}

var (
	errNoManifest    = errors.New("manifest or builtin is required")
	errBothManifests = errors.New("provide either manifest or builtin, not both")
)

func writeManifestError(w http.ResponseWriter, err error) {
	var verr *manifest.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    "invalid manifest",
			"problems": verr.Problems,
		})
	case errors.Is(err, manifest.ErrUnknownBuiltin):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		jsonError(w, err.Error(), http.StatusBadRequest)
	}
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// completedJob looks up a finished job, writing the error response when
// there is none.
func (s *Server) completedJob(w http.ResponseWriter, r *http.Request) (*pipeline.Job, report.DocumentScan, bool) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, report.DocumentScan{}, false
	}
	ds, ok := job.Result()
	if !ok {
		snap := job.Snapshot()
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "scan not complete",
			"status": snap.Status,
			"errors": snap.Progress.Errors,
		})
		return nil, report.DocumentScan{}, false
	}
	return job, ds, true
}

func (s *Server) handleScanReferences(w http.ResponseWriter, r *http.Request) {
	job, ds, ok := s.completedJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.References(job.Manifest(), []report.DocumentScan{ds}))
}

func (s *Server) handleScanFindings(w http.ResponseWriter, r *http.Request) {
	job, ds, ok := s.completedJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.BuildFindings(job.Manifest(), []report.DocumentScan{ds}))
}

func (s *Server) handleScanMarkers(w http.ResponseWriter, r *http.Request) {
	_, ds, ok := s.completedJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Markers([]report.DocumentScan{ds}))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" || name == "_" {
		name = "unnamed"
	}
	return name
}
