package models

import "time"

// BuildResult summarises one corpus rebuild
type BuildResult struct {
	Documents   []Document        `json:"-"`
	Images      []ImageDescriptor `json:"-"`
	Total       int               `json:"total"`
	Loaded      int               `json:"loaded"`
	Failed      int               `json:"failed"`
	ImageCount  int               `json:"image_count"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
}

// Duration returns how long the rebuild took
func (r *BuildResult) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// CorpusStatus reports the current state of the document store
type CorpusStatus struct {
	Initialized   bool      `json:"initialized"`
	DocumentCount int       `json:"document_count"`
	ImageCount    int       `json:"image_count"`
	ErrorCount    int       `json:"error_count"`
	LastBuildTime time.Time `json:"last_build_time"`
	Rebuilding    bool      `json:"rebuilding"`
	LastError     string    `json:"last_error,omitempty"`
}
