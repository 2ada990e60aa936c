package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/interfaces"
)

const maxAuditLimit = 500

// AuditHandler lists recently answered questions
type AuditHandler struct {
	audit  interfaces.AuditStorage
	logger arbor.ILogger
}

func NewAuditHandler(audit interfaces.AuditStorage, logger arbor.ILogger) *AuditHandler {
	return &AuditHandler{
		audit:  audit,
		logger: logger,
	}
}

// ListHandler handles GET /api/audit?limit=
func (h *AuditHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := QueryInt(r, "limit", 50)
	if limit <= 0 || limit > maxAuditLimit {
		WriteError(w, http.StatusBadRequest, "limit must be between 1 and 500")
		return
	}

	records, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list answer records")
		WriteError(w, http.StatusInternalServerError, "failed to list answer records")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}
