package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Chat platform adapter
	mux.HandleFunc("/api/webhook", s.app.WebhookHandler.WebhookHandler) // POST - signed bot event

	// Answering
	mux.HandleFunc("/api/ask", s.app.AskHandler.AskHandler) // POST

	// Knowledge base
	mux.HandleFunc("/api/knowledge/search", s.app.KnowledgeHandler.SearchHandler)   // GET
	mux.HandleFunc("/api/knowledge/rebuild", s.app.KnowledgeHandler.RebuildHandler) // POST
	mux.HandleFunc("/api/knowledge/status", s.app.KnowledgeHandler.StatusHandler)   // GET

	// Answer audit trail
	if s.app.AuditHandler != nil {
		mux.HandleFunc("/api/audit", s.app.AuditHandler.ListHandler) // GET
	}

	// Scheduler
	mux.HandleFunc("/api/scheduler/jobs", s.app.SchedulerHandler.ListJobsHandler)   // GET
	mux.HandleFunc("/api/scheduler/jobs/", s.app.SchedulerHandler.JobRoutesHandler) // GET /{name}, POST /{name}/{action}

	// System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/api/health", http.StatusFound)
			return
		}
		s.app.APIHandler.NotFoundHandler(w, r)
	})

	return mux
}
