package models

import "fmt"

// MatchSignal names one scoring contribution
type MatchSignal string

const (
	SignalRemarksKeyword MatchSignal = "remarks_keyword"
	SignalTokenFrequency MatchSignal = "token_frequency"
	SignalContentPhrase  MatchSignal = "content_phrase"
	SignalCategory       MatchSignal = "category"
	SignalClassification MatchSignal = "classification"
	SignalFilenameToken  MatchSignal = "filename_token"
	SignalRemarksPhrase  MatchSignal = "remarks_phrase"
	SignalRemarksToken   MatchSignal = "remarks_token"
)

// MatchDetail is one non-negative contribution to a relevance score
type MatchDetail struct {
	Signal MatchSignal `json:"signal"`
	Term   string      `json:"term,omitempty"` // Keyword or token responsible, if any
	Value  float64     `json:"value"`
}

func (m MatchDetail) String() string {
	if m.Term != "" {
		return fmt.Sprintf("%s(%s): +%.2f", m.Signal, m.Term, m.Value)
	}
	return fmt.Sprintf("%s: +%.2f", m.Signal, m.Value)
}

// ResultMetadata is the subset of document metadata exposed with a result
type ResultMetadata struct {
	Source         string `json:"source"`
	URL            string `json:"url"`
	Classification string `json:"classification,omitempty"`
	Category       string `json:"category,omitempty"`
	GoodBadExample string `json:"good_bad_example,omitempty"`
	Type           string `json:"type,omitempty"`
	ImageCount     int    `json:"image_count"`
}

// SearchResult wraps a document with its relevance for one query
type SearchResult struct {
	Document     *Document      `json:"-"`
	Score        float64        `json:"score"`
	MatchDetails []MatchDetail  `json:"match_details"`
	Answer       string         `json:"answer"` // Excerpt around the first match
	Metadata     ResultMetadata `json:"metadata"`
}

// SearchFilters are equality filters combined with AND; empty fields are ignored
type SearchFilters struct {
	Classification string `json:"classification,omitempty"`
	Category       string `json:"category,omitempty"`
	GoodBadExample string `json:"good_bad_example,omitempty"`
}

// IsEmpty reports whether no filter key is set
func (f SearchFilters) IsEmpty() bool {
	return f.Classification == "" && f.Category == "" && f.GoodBadExample == ""
}

// SearchOptions controls ranking cut-offs
type SearchOptions struct {
	MaxResults int           `json:"max_results"`
	MinScore   float64       `json:"min_score"`
	TopK       int           `json:"top_k"`
	Filters    SearchFilters `json:"filters"`
}

// Limit returns the number of results to keep
func (o SearchOptions) Limit() int {
	return max(o.MaxResults, o.TopK)
}

// Assessment is the answerability decision for a result set
type Assessment struct {
	CanAnswer     bool    `json:"can_answer"`
	Reason        string  `json:"reason"`
	Confidence    float64 `json:"confidence"`
	RelevantCount int     `json:"relevant_count,omitempty"`
}
