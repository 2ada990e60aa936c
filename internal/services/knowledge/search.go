package knowledge

import (
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
)

// SearchService ranks the current corpus against a query
type SearchService struct {
	store  interfaces.CorpusReader
	scorer *Scorer
	logger arbor.ILogger
}

// NewSearchService creates a search facade over store
func NewSearchService(store interfaces.CorpusReader, scorer *Scorer, logger arbor.ILogger) *SearchService {
	if scorer == nil {
		scorer = NewScorer(defaultExcerptLength, defaultExcerptLeadIn)
	}
	return &SearchService{
		store:  store,
		scorer: scorer,
		logger: logger,
	}
}

// Search filters, scores, sorts, thresholds and truncates. Results with equal
// scores keep corpus order. It never returns an error: failures are logged and
// produce an empty result.
func (s *SearchService) Search(query string, opts models.SearchOptions) (results []models.SearchResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("query", query).Str("panic", fmt.Sprintf("%v", r)).Msg("Knowledge search failed")
			results = []models.SearchResult{}
		}
	}()

	if !s.store.IsInitialized() {
		s.logger.Debug().Str("query", query).Msg("Knowledge base not initialized, returning no results")
		return []models.SearchResult{}
	}

	// One read of the snapshot for the whole search
	documents := s.store.Documents()
	if len(documents) == 0 {
		return []models.SearchResult{}
	}

	tokens := Tokenize(query)
	candidates := filterDocuments(documents, opts.Filters)

	s.logger.Debug().
		Str("query", query).
		Strs("tokens", tokens.Sorted()).
		Int("documents", len(documents)).
		Int("candidates", len(candidates)).
		Msg("Scoring knowledge base")

	scored := make([]models.SearchResult, 0, len(candidates))
	for _, doc := range candidates {
		sc := s.scorer.Score(doc, query, tokens)
		scored = append(scored, models.SearchResult{
			Document:     doc,
			Score:        sc.Score,
			MatchDetails: sc.MatchDetails,
			Answer:       sc.Excerpt,
			Metadata:     metadataOf(doc),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	results = make([]models.SearchResult, 0, len(scored))
	for _, r := range scored {
		if r.Score >= opts.MinScore {
			results = append(results, r)
		}
	}

	if limit := opts.Limit(); limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	if len(results) > 0 {
		s.logger.Debug().
			Str("query", query).
			Int("results", len(results)).
			Float64("top_score", results[0].Score).
			Str("top_source", results[0].Metadata.Source).
			Msg("Knowledge search complete")
	}

	return results
}

// filterDocuments applies equality filters combined with AND
func filterDocuments(documents []models.Document, filters models.SearchFilters) []*models.Document {
	out := make([]*models.Document, 0, len(documents))
	if filters.IsEmpty() {
		for i := range documents {
			out = append(out, &documents[i])
		}
		return out
	}
	for i := range documents {
		doc := &documents[i]
		if filters.Classification != "" && doc.Classification != filters.Classification {
			continue
		}
		if filters.Category != "" && doc.Category != filters.Category {
			continue
		}
		if filters.GoodBadExample != "" && doc.GoodBadExample != filters.GoodBadExample {
			continue
		}
		out = append(out, doc)
	}
	return out
}

func metadataOf(doc *models.Document) models.ResultMetadata {
	return models.ResultMetadata{
		Source:         doc.Source,
		URL:            doc.URL,
		Classification: doc.Classification,
		Category:       doc.Category,
		GoodBadExample: doc.GoodBadExample,
		Type:           doc.Type,
		ImageCount:     len(doc.Images),
	}
}
