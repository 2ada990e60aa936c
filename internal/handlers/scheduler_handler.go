package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/interfaces"
)

// SchedulerHandler handles scheduler-related endpoints
type SchedulerHandler struct {
	schedulerService interfaces.SchedulerService
	logger           arbor.ILogger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(schedulerService interfaces.SchedulerService, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
		logger:           logger,
	}
}

// ListJobsHandler handles GET /api/scheduler/jobs
func (h *SchedulerHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.schedulerService.IsRunning(),
		"jobs":    h.schedulerService.GetAllJobStatuses(),
	})
}

// JobRoutesHandler handles /api/scheduler/jobs/{name}[/trigger|/enable|/disable]
func (h *SchedulerHandler) JobRoutesHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/scheduler/jobs/"), "/")
	name, action, _ := strings.Cut(path, "/")
	if name == "" {
		WriteError(w, http.StatusNotFound, "job name is required")
		return
	}

	switch action {
	case "":
		if !RequireMethod(w, r, http.MethodGet) {
			return
		}
		status, err := h.schedulerService.GetJobStatus(name)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, status)

	case "trigger", "enable", "disable":
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		if _, err := h.schedulerService.GetJobStatus(name); err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}

		var err error
		switch action {
		case "trigger":
			err = h.schedulerService.TriggerJob(name)
		case "enable":
			err = h.schedulerService.EnableJob(name)
		case "disable":
			err = h.schedulerService.DisableJob(name)
		}
		if err != nil {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}

		h.logger.Info().Str("job_name", name).Str("action", action).Msg("Scheduler job updated")
		WriteJSON(w, http.StatusOK, map[string]string{
			"status": "success",
			"job":    name,
			"action": action,
		})

	default:
		WriteError(w, http.StatusNotFound, "unknown scheduler action")
	}
}
