package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/models"
)

// fakeStore is a fixed corpus for facade tests
type fakeStore struct {
	initialized bool
	documents   []models.Document
}

func (f *fakeStore) Documents() []models.Document     { return f.documents }
func (f *fakeStore) Images() []models.ImageDescriptor { return nil }
func (f *fakeStore) IsInitialized() bool              { return f.initialized }

func newSearch(docs ...models.Document) *SearchService {
	store := &fakeStore{initialized: true, documents: docs}
	return NewSearchService(store, NewScorer(2000, 100), arbor.NewLogger())
}

func sourcesOf(results []models.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Metadata.Source
	}
	return out
}

func TestSearch_NotInitialized(t *testing.T) {
	svc := NewSearchService(&fakeStore{}, nil, arbor.NewLogger())
	results := svc.Search("anything", models.SearchOptions{MaxResults: 5})
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_EmptyCorpus(t *testing.T) {
	svc := newSearch()
	results := svc.Search("OBS設定について教えて", models.SearchOptions{MaxResults: 5})
	assert.Empty(t, results)
	assert.False(t, DefaultGate().Assess(results, "OBS設定について教えて").CanAnswer)
}

func TestSearch_RemarksScenarioRanksFirst(t *testing.T) {
	svc := newSearch(
		models.Document{Source: "会議室の予約", Content: "会議室はポータルから予約できます。"},
		models.Document{Source: "カメラ", Content: "カメラの設定について。"},
		models.Document{
			Source:  "配信マニュアル",
			Content: "OBSの起動方法。OBSで配信を開始します。OBSの音声設定も確認してください。",
			Remarks: "配信設定, OBS",
		},
	)

	results := svc.Search("OBS設定について教えて", models.SearchOptions{MaxResults: 5, MinScore: 5.15})
	require.NotEmpty(t, results)
	assert.Equal(t, "配信マニュアル", results[0].Metadata.Source)
	assert.GreaterOrEqual(t, results[0].Score, 5.15)
	assert.NotEmpty(t, results[0].MatchDetails)
	assert.Contains(t, results[0].Answer, "OBS")
}

func TestSearch_ThresholdBoundary(t *testing.T) {
	doc := models.Document{Source: "guide", Content: "alpha beta alpha"}
	exact := NewScorer(0, 0).Score(&doc, "alpha", Tokenize("alpha")).Score
	svc := newSearch(doc)

	included := svc.Search("alpha", models.SearchOptions{MaxResults: 5, MinScore: exact})
	assert.Len(t, included, 1)

	excluded := svc.Search("alpha", models.SearchOptions{MaxResults: 5, MinScore: exact + 1e-9})
	assert.Empty(t, excluded)
}

func TestSearch_ZeroScoreExcludedByPositiveThreshold(t *testing.T) {
	svc := newSearch(
		models.Document{Source: "unrelated", Content: "nothing to see"},
		models.Document{Source: "camera", Content: "camera setup"},
	)

	results := svc.Search("camera", models.SearchOptions{MaxResults: 5, MinScore: 0.01})
	assert.Equal(t, []string{"camera"}, sourcesOf(results))

	all := svc.Search("camera", models.SearchOptions{MaxResults: 5, MinScore: 0})
	assert.Equal(t, []string{"camera", "unrelated"}, sourcesOf(all))
}

func TestSearch_EqualScoresKeepCorpusOrder(t *testing.T) {
	svc := newSearch(
		models.Document{Source: "doc-1", Content: "alpha"},
		models.Document{Source: "doc-2", Content: "alpha alpha alpha"},
		models.Document{Source: "doc-3", Content: "alpha"},
		models.Document{Source: "doc-4", Content: "alpha"},
	)

	results := svc.Search("alpha", models.SearchOptions{MaxResults: 10, MinScore: 0.01})
	assert.Equal(t, []string{"doc-2", "doc-1", "doc-3", "doc-4"}, sourcesOf(results))
}

func TestSearch_Filters(t *testing.T) {
	docs := []models.Document{
		{Source: "a", Content: "zoom", Classification: "faq", Category: "meeting", GoodBadExample: "good"},
		{Source: "b", Content: "zoom", Classification: "faq", Category: "meeting", GoodBadExample: "bad"},
		{Source: "c", Content: "zoom", Classification: "manual", Category: "meeting", GoodBadExample: "good"},
		{Source: "d", Content: "zoom", Classification: "faq", Category: "stream", GoodBadExample: "good"},
	}
	svc := newSearch(docs...)

	tests := []struct {
		name     string
		filters  models.SearchFilters
		expected []string
	}{
		{"No filters", models.SearchFilters{}, []string{"a", "b", "c", "d"}},
		{"Classification", models.SearchFilters{Classification: "faq"}, []string{"a", "b", "d"}},
		{"Classification and category", models.SearchFilters{Classification: "faq", Category: "meeting"}, []string{"a", "b"}},
		{"All three", models.SearchFilters{Classification: "faq", Category: "meeting", GoodBadExample: "good"}, []string{"a"}},
		{"No match", models.SearchFilters{Category: "other"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := svc.Search("zoom", models.SearchOptions{MaxResults: 10, MinScore: 0.01, Filters: tt.filters})
			assert.Equal(t, tt.expected, sourcesOf(results))
		})
	}
}

func TestSearch_TruncatesToLargerOfMaxResultsAndTopK(t *testing.T) {
	var docs []models.Document
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		docs = append(docs, models.Document{Source: s, Content: "zoom"})
	}
	svc := newSearch(docs...)

	tests := []struct {
		name     string
		opts     models.SearchOptions
		expected int
	}{
		{"TopK larger", models.SearchOptions{MaxResults: 2, TopK: 3}, 3},
		{"MaxResults larger", models.SearchOptions{MaxResults: 4, TopK: 1}, 4},
		{"Both larger than corpus", models.SearchOptions{MaxResults: 10, TopK: 10}, 5},
		{"Zero means unlimited", models.SearchOptions{}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.MinScore = 0.01
			assert.Len(t, svc.Search("zoom", tt.opts), tt.expected)
		})
	}
}

func TestSearch_ResultMetadata(t *testing.T) {
	svc := newSearch(models.Document{
		Source:         "slides",
		URL:            "https://docs.google.com/presentation/d/abc",
		Content:        "zoom",
		Classification: "faq",
		Category:       "meeting",
		GoodBadExample: "good",
		Type:           "slides",
		Images:         []models.ImageDescriptor{{FileName: "1.png"}, {FileName: "2.png"}},
	})

	results := svc.Search("zoom", models.SearchOptions{MaxResults: 1})
	require.Len(t, results, 1)
	assert.Equal(t, models.ResultMetadata{
		Source:         "slides",
		URL:            "https://docs.google.com/presentation/d/abc",
		Classification: "faq",
		Category:       "meeting",
		GoodBadExample: "good",
		Type:           "slides",
		ImageCount:     2,
	}, results[0].Metadata)
	assert.Same(t, &svc.store.Documents()[0], results[0].Document)
}
