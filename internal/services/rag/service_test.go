package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
	"github.com/ternarybob/kotae/internal/services/knowledge"
)

type fakeCorpus struct {
	initialized bool
}

func (f *fakeCorpus) Documents() []models.Document     { return nil }
func (f *fakeCorpus) Images() []models.ImageDescriptor { return nil }
func (f *fakeCorpus) IsInitialized() bool              { return f.initialized }

type fakeSearch struct {
	SearchFunc func(query string, opts models.SearchOptions) []models.SearchResult
	lastOpts   models.SearchOptions
}

func (f *fakeSearch) Search(query string, opts models.SearchOptions) []models.SearchResult {
	f.lastOpts = opts
	return f.SearchFunc(query, opts)
}

type fakeProvider struct {
	calls        int
	systemPrompt string
	query        string
	images       []models.ImageDescriptor
	err          error
}

func (f *fakeProvider) GenerateText(ctx context.Context, systemPrompt, userQuery string, images []models.ImageDescriptor, opts interfaces.CompletionOptions) (*interfaces.CompletionResult, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	f.query = userQuery
	f.images = images
	if f.err != nil {
		return nil, f.err
	}
	return &interfaces.CompletionResult{Text: "generated answer", Provider: "fake", Model: "fake-1"}, nil
}

func testConfig() Config {
	return Config{
		Lenient:          models.SearchOptions{MaxResults: 15, MinScore: 0.05, TopK: 15},
		Strict:           models.SearchOptions{MaxResults: 5, MinScore: 0.3, TopK: 5},
		Gate:             knowledge.DefaultGate(),
		MaxContextLength: 30000,
		MaxImages:        4,
	}
}

func result(source string, score float64, excerpt string, images ...models.ImageDescriptor) models.SearchResult {
	doc := &models.Document{Source: source, Content: excerpt, Images: images}
	return models.SearchResult{
		Document: doc,
		Score:    score,
		Answer:   excerpt,
		Metadata: models.ResultMetadata{Source: source, ImageCount: len(images)},
	}
}

func staticSearch(results ...models.SearchResult) *fakeSearch {
	return &fakeSearch{SearchFunc: func(string, models.SearchOptions) []models.SearchResult { return results }}
}

func newTestService(initialized bool, search *fakeSearch, provider *fakeProvider) *Service {
	return NewService(&fakeCorpus{initialized: initialized}, search, provider, testConfig(), arbor.NewLogger())
}

func TestAnswer_NotInitialized(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(false, staticSearch(), provider)

	_, err := svc.Answer(context.Background(), "質問", models.AnswerOptions{})
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, err, knowledge.ErrNotInitialized)
	assert.Zero(t, provider.calls)
}

func TestAnswer_WithoutRAG(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(false, staticSearch(), provider)

	answer, err := svc.Answer(context.Background(), "what is obs", models.AnswerOptions{
		DisableRAG: true,
		UserImages: []models.ImageDescriptor{{FileName: "screen.png", URL: "https://cdn.example.com/screen.png"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "generated answer", answer.Text)
	assert.False(t, answer.Metadata.RAGUsed)
	assert.Equal(t, models.AnswerModeLenient, answer.Metadata.Mode)
	assert.Equal(t, 1, answer.Metadata.UserImages)
	assert.Equal(t, noRAGSystemPrompt, provider.systemPrompt)
	assert.Len(t, provider.images, 1)
}

func TestAnswer_LenientUsesRankedContext(t *testing.T) {
	provider := &fakeProvider{}
	search := staticSearch(
		result("配信マニュアル", 5.2, "OBSの設定手順"),
		result("FAQ", 0.8, "よくある質問"),
	)
	svc := newTestService(true, search, provider)

	answer, err := svc.Answer(context.Background(), "OBS設定について教えて", models.AnswerOptions{})
	require.NoError(t, err)

	assert.Equal(t, "generated answer", answer.Text)
	assert.Equal(t, "OBS設定について教えて", provider.query)
	assert.Contains(t, provider.systemPrompt, "=== Document 1: 配信マニュアル ===")
	assert.Contains(t, provider.systemPrompt, "OBSの設定手順")
	assert.Less(t, strings.Index(provider.systemPrompt, "配信マニュアル"), strings.Index(provider.systemPrompt, "FAQ"))

	meta := answer.Metadata
	assert.True(t, meta.RAGUsed)
	assert.Equal(t, models.AnswerModeLenient, meta.Mode)
	assert.Equal(t, 2, meta.DocumentsFound)
	assert.Equal(t, 2, meta.DocumentsUsed)
	assert.Equal(t, []string{"配信マニュアル", "FAQ"}, meta.Sources)
	assert.InDelta(t, 5.2, meta.MaxScore, 1e-9)
	assert.InDelta(t, 3.0, meta.AverageScore, 1e-9)
	assert.Positive(t, meta.ContextLength)
	assert.Equal(t, "fake", meta.Provider)
	assert.Equal(t, 0.05, search.lastOpts.MinScore)
}

func TestAnswer_LenientWithNoResultsStillAnswers(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(true, staticSearch(), provider)

	answer, err := svc.Answer(context.Background(), "hello", models.AnswerOptions{})
	require.NoError(t, err)
	assert.False(t, answer.Metadata.RAGUsed)
	assert.Equal(t, 1, provider.calls)
	assert.Contains(t, provider.systemPrompt, noDocumentsNote)
}

func TestAnswer_StrictRefusesWeakEvidence(t *testing.T) {
	provider := &fakeProvider{}
	search := staticSearch(result("FAQ", 0.1, "unrelated"))
	svc := newTestService(true, search, provider)

	answer, err := svc.Answer(context.Background(), "unknown topic", models.AnswerOptions{Mode: models.AnswerModeStrict})
	require.NoError(t, err)

	assert.Equal(t, RefusalMessage, answer.Text)
	assert.True(t, answer.Metadata.Refused)
	assert.InDelta(t, 0.1, answer.Metadata.Confidence, 1e-9)
	assert.Zero(t, provider.calls)
	assert.Equal(t, 0.3, search.lastOpts.MinScore)
}

func TestAnswer_StrictRefusesEmptyResults(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(true, staticSearch(), provider)

	answer, err := svc.Answer(context.Background(), "anything", models.AnswerOptions{Mode: models.AnswerModeStrict})
	require.NoError(t, err)
	assert.Equal(t, RefusalMessage, answer.Text)
	assert.Zero(t, provider.calls)
}

func TestAnswer_StrictAnswersStrongEvidence(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(true, staticSearch(result("配信マニュアル", 5.15, "OBS")), provider)

	answer, err := svc.Answer(context.Background(), "OBS", models.AnswerOptions{Mode: models.AnswerModeStrict})
	require.NoError(t, err)
	assert.Equal(t, "generated answer", answer.Text)
	assert.False(t, answer.Metadata.Refused)
	assert.InDelta(t, 5.15, answer.Metadata.Confidence, 1e-9)
	assert.True(t, strings.HasPrefix(provider.systemPrompt, strictSystemPrompt))
}

func TestAnswer_OptionsOverrideProfile(t *testing.T) {
	search := staticSearch()
	svc := newTestService(true, search, &fakeProvider{})

	filters := models.SearchFilters{Category: "meeting"}
	_, err := svc.Answer(context.Background(), "zoom", models.AnswerOptions{MaxResults: 30, Filters: filters})
	require.NoError(t, err)

	assert.Equal(t, 30, search.lastOpts.MaxResults)
	assert.Equal(t, 30, search.lastOpts.Limit())
	assert.Equal(t, filters, search.lastOpts.Filters)
}

func TestAnswer_GenerationError(t *testing.T) {
	providerErr := errors.New("quota exceeded")
	provider := &fakeProvider{err: providerErr}
	svc := newTestService(true, staticSearch(result("FAQ", 1, "x")), provider)

	_, err := svc.Answer(context.Background(), "x", models.AnswerOptions{})
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.ErrorIs(t, err, providerErr)
}

func TestAnswer_RetrievalError(t *testing.T) {
	provider := &fakeProvider{}
	search := &fakeSearch{SearchFunc: func(string, models.SearchOptions) []models.SearchResult {
		panic("index corrupted")
	}}
	svc := newTestService(true, search, provider)

	_, err := svc.Answer(context.Background(), "x", models.AnswerOptions{})
	var retErr *RetrievalError
	require.True(t, errors.As(err, &retErr))
	assert.Contains(t, retErr.Error(), "index corrupted")
	assert.Zero(t, provider.calls)
}

func TestAnswer_ContextBudgetStopsAtWholeResults(t *testing.T) {
	var results []models.SearchResult
	for i := 0; i < 10; i++ {
		results = append(results, result("doc", float64(10-i), strings.Repeat("x", 5000)))
	}
	provider := &fakeProvider{}
	cfg := testConfig()
	cfg.MaxContextLength = 12000
	svc := NewService(&fakeCorpus{initialized: true}, staticSearch(results...), provider, cfg, arbor.NewLogger())

	answer, err := svc.Answer(context.Background(), "x", models.AnswerOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, answer.Metadata.DocumentsUsed)
	assert.Equal(t, 10, answer.Metadata.DocumentsFound)
	assert.LessOrEqual(t, answer.Metadata.ContextLength, 12000)
	assert.Greater(t, answer.Metadata.ContextLength, 10000)
	assert.Equal(t, 2, strings.Count(provider.systemPrompt, strings.Repeat("x", 5000)))
}

func TestAnswer_PassesSelectedImages(t *testing.T) {
	provider := &fakeProvider{}
	docImages := []models.ImageDescriptor{
		{FileName: "d1.png", URL: "https://img/d1.png"},
		{FileName: "d2.png", URL: "https://img/d2.png"},
		{FileName: "d3.png", URL: "https://img/d3.png"},
	}
	svc := newTestService(true, staticSearch(result("slides", 3, "x", docImages...)), provider)

	answer, err := svc.Answer(context.Background(), "x", models.AnswerOptions{
		UserImages: []models.ImageDescriptor{
			{FileName: "u1.png", URL: "https://img/u1.png"},
			{FileName: "u2.png", URL: "https://img/u2.png"},
		},
	})
	require.NoError(t, err)

	require.Len(t, provider.images, 4)
	assert.Equal(t, "u1.png", provider.images[0].FileName)
	assert.Equal(t, "u2.png", provider.images[1].FileName)
	assert.Equal(t, "d1.png", provider.images[2].FileName)
	assert.Equal(t, "d2.png", provider.images[3].FileName)
	assert.Equal(t, 2, answer.Metadata.UserImages)
	assert.Equal(t, 2, answer.Metadata.DocumentImages)
}
