package knowledge

import (
	"fmt"

	"github.com/ternarybob/kotae/internal/models"
)

// Gate decides whether retrieved evidence is strong enough to answer from
type Gate struct {
	Threshold  float64
	MinResults int
}

// DefaultGate returns the gate with threshold 0.3 and a minimum of one result
func DefaultGate() Gate {
	return Gate{Threshold: 0.3, MinResults: 1}
}

// Assess is a pure decision over results; query is only used in the reason text
func (g Gate) Assess(results []models.SearchResult, query string) models.Assessment {
	minResults := max(g.MinResults, 1)
	if len(results) < minResults {
		return models.Assessment{
			CanAnswer:  false,
			Reason:     fmt.Sprintf("found %d relevant documents for %q, need at least %d", len(results), query, minResults),
			Confidence: 0,
		}
	}

	maxRelevance := 0.0
	for _, r := range results {
		maxRelevance = max(maxRelevance, r.Score)
	}

	if maxRelevance < g.Threshold {
		return models.Assessment{
			CanAnswer:  false,
			Reason:     fmt.Sprintf("best relevance %.2f is below threshold %.2f", maxRelevance, g.Threshold),
			Confidence: maxRelevance,
		}
	}

	relevant := 0
	for _, r := range results {
		if r.Score >= g.Threshold {
			relevant++
		}
	}

	return models.Assessment{
		CanAnswer:     true,
		Reason:        fmt.Sprintf("%d documents at or above threshold %.2f", relevant, g.Threshold),
		Confidence:    maxRelevance,
		RelevantCount: relevant,
	}
}
