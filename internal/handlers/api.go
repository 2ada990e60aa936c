package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/common"
)

type APIHandler struct {
	corpus CorpusStatusReporter
	logger arbor.ILogger
}

func NewAPIHandler(corpus CorpusStatusReporter, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		corpus: corpus,
		logger: logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// HealthHandler reports liveness. The process is healthy before the first
// corpus build; readiness is reported separately.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	response := map[string]interface{}{"status": "ok"}
	if h.corpus != nil {
		status := h.corpus.Status()
		response["knowledge_ready"] = status.Initialized
		response["documents"] = status.DocumentCount
	}
	WriteJSON(w, http.StatusOK, response)
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
