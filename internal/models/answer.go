package models

import "time"

// AnswerMode selects the retrieval profile used by the orchestrator
type AnswerMode string

const (
	// AnswerModeLenient answers from retrieved context and general instructions
	AnswerModeLenient AnswerMode = "lenient"
	// AnswerModeStrict answers only from the knowledge base and refuses below the gate threshold
	AnswerModeStrict AnswerMode = "strict"
)

// ParseAnswerMode maps user input to a mode, defaulting to lenient
func ParseAnswerMode(s string) AnswerMode {
	switch s {
	case "strict", "kb", "knowledge":
		return AnswerModeStrict
	default:
		return AnswerModeLenient
	}
}

// AnswerOptions are per-request overrides for the orchestrator
type AnswerOptions struct {
	Mode       AnswerMode        `json:"mode"`
	MaxResults int               `json:"max_results,omitempty"` // Overrides the profile when > 0
	Filters    SearchFilters     `json:"filters"`
	UserImages []ImageDescriptor `json:"-"`
	DisableRAG bool              `json:"disable_rag,omitempty"` // Answer from general instructions only
}

// AnswerMetadata describes how an answer was produced
type AnswerMetadata struct {
	Mode             AnswerMode `json:"mode"`
	RAGUsed          bool       `json:"rag_used"`
	Refused          bool       `json:"refused"`
	DocumentsFound   int        `json:"documents_found"`
	DocumentsUsed    int        `json:"documents_used"`
	Sources          []string   `json:"sources,omitempty"`
	AverageScore     float64    `json:"average_score"`
	MaxScore         float64    `json:"max_score"`
	UserImages       int        `json:"user_images"`
	DocumentImages   int        `json:"document_images"`
	ContextLength    int        `json:"context_length"`
	Confidence       float64    `json:"confidence,omitempty"`
	Provider         string     `json:"provider,omitempty"`
	Model            string     `json:"model,omitempty"`
	GenerationTimeMs int64      `json:"generation_time_ms"`
}

// Answer is the orchestrator output
type Answer struct {
	Text     string         `json:"text"`
	Metadata AnswerMetadata `json:"metadata"`
}

// AnswerRecord is the persisted audit entry for one answered question
type AnswerRecord struct {
	ID            string        `json:"id"`
	Query         string        `json:"query"`
	Mode          AnswerMode    `json:"mode"`
	UserID        string        `json:"user_id,omitempty"`
	RAGUsed       bool          `json:"rag_used"`
	Refused       bool          `json:"refused"`
	DocumentsUsed int           `json:"documents_used"`
	MaxScore      float64       `json:"max_score"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
	CreatedAt     time.Time     `json:"created_at"`
}
