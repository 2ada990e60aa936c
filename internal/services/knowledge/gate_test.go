package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/kotae/internal/models"
)

func resultsWithScores(scores ...float64) []models.SearchResult {
	results := make([]models.SearchResult, len(scores))
	for i, s := range scores {
		results[i] = models.SearchResult{Score: s}
	}
	return results
}

func TestGate_Assess(t *testing.T) {
	tests := []struct {
		name          string
		gate          Gate
		results       []models.SearchResult
		canAnswer     bool
		confidence    float64
		relevantCount int
	}{
		{
			name:       "No results",
			gate:       DefaultGate(),
			results:    nil,
			canAnswer:  false,
			confidence: 0,
		},
		{
			name:       "Below threshold",
			gate:       DefaultGate(),
			results:    resultsWithScores(0.1),
			canAnswer:  false,
			confidence: 0.1,
		},
		{
			name:          "Above threshold",
			gate:          DefaultGate(),
			results:       resultsWithScores(0.5),
			canAnswer:     true,
			confidence:    0.5,
			relevantCount: 1,
		},
		{
			name:          "Exactly at threshold",
			gate:          DefaultGate(),
			results:       resultsWithScores(0.3),
			canAnswer:     true,
			confidence:    0.3,
			relevantCount: 1,
		},
		{
			name:          "Counts only results at or above threshold",
			gate:          DefaultGate(),
			results:       resultsWithScores(5.15, 0.4, 0.2, 0.05),
			canAnswer:     true,
			confidence:    5.15,
			relevantCount: 2,
		},
		{
			name:       "Fewer than minimum count",
			gate:       Gate{Threshold: 0.3, MinResults: 3},
			results:    resultsWithScores(9, 9),
			canAnswer:  false,
			confidence: 0,
		},
		{
			name:          "Unsorted input uses the maximum",
			gate:          DefaultGate(),
			results:       resultsWithScores(0.1, 0.9, 0.2),
			canAnswer:     true,
			confidence:    0.9,
			relevantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessment := tt.gate.Assess(tt.results, "query")
			assert.Equal(t, tt.canAnswer, assessment.CanAnswer)
			assert.InDelta(t, tt.confidence, assessment.Confidence, 1e-9)
			assert.Equal(t, tt.relevantCount, assessment.RelevantCount)
			assert.NotEmpty(t, assessment.Reason)
		})
	}
}

func TestGate_AssessDoesNotModifyResults(t *testing.T) {
	results := resultsWithScores(0.2, 0.8)
	DefaultGate().Assess(results, "q")
	assert.Equal(t, resultsWithScores(0.2, 0.8), results)
}
