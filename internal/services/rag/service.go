package rag

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/common"
	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
	"github.com/ternarybob/kotae/internal/services/knowledge"
)

// Config holds the orchestrator knobs
type Config struct {
	Lenient          models.SearchOptions
	Strict           models.SearchOptions
	Gate             knowledge.Gate
	MaxContextLength int // Characters of document context per prompt
	MaxImages        int
	Completion       interfaces.CompletionOptions
}

// ConfigFromKnowledge maps the [knowledge] config section to orchestrator settings
func ConfigFromKnowledge(k common.KnowledgeConfig) Config {
	return Config{
		Lenient: models.SearchOptions{
			MaxResults: k.Lenient.MaxResults,
			MinScore:   k.Lenient.MinScore,
			TopK:       k.Lenient.TopK,
		},
		Strict: models.SearchOptions{
			MaxResults: k.Strict.MaxResults,
			MinScore:   k.Strict.MinScore,
			TopK:       k.Strict.TopK,
		},
		Gate:             knowledge.Gate{Threshold: k.GateThreshold, MinResults: k.GateMinResults},
		MaxContextLength: k.MaxContextLength,
		MaxImages:        k.MaxImages,
		Completion: interfaces.CompletionOptions{
			Temperature: k.Temperature,
			MaxTokens:   k.MaxTokens,
		},
	}
}

// Service builds grounded prompts from the knowledge base and delegates generation
type Service struct {
	corpus   interfaces.CorpusReader
	search   interfaces.KnowledgeSearch
	provider interfaces.CompletionProvider
	config   Config
	logger   arbor.ILogger
}

// NewService creates a new RAG orchestrator
func NewService(
	corpus interfaces.CorpusReader,
	search interfaces.KnowledgeSearch,
	provider interfaces.CompletionProvider,
	config Config,
	logger arbor.ILogger,
) *Service {
	return &Service{
		corpus:   corpus,
		search:   search,
		provider: provider,
		config:   config,
		logger:   logger,
	}
}

// Answer retrieves context for query and generates a grounded answer.
//
// Errors:
//   - ErrNotInitialized when the corpus has never been built (unless opts.DisableRAG)
//   - *RetrievalError when searching fails unexpectedly
//   - *GenerationError when the completion provider fails
//
// In strict mode a weak match returns RefusalMessage without calling the provider.
func (s *Service) Answer(ctx context.Context, query string, opts models.AnswerOptions) (*models.Answer, error) {
	mode := opts.Mode
	if mode == "" {
		mode = models.AnswerModeLenient
	}
	opts.Mode = mode

	if opts.DisableRAG {
		return s.answerWithoutRAG(ctx, query, opts)
	}

	if !s.corpus.IsInitialized() {
		return nil, ErrNotInitialized
	}

	searchOpts := s.config.Lenient
	if mode == models.AnswerModeStrict {
		searchOpts = s.config.Strict
	}
	if opts.MaxResults > 0 {
		searchOpts.MaxResults = opts.MaxResults
		searchOpts.TopK = min(searchOpts.TopK, opts.MaxResults)
	}
	searchOpts.Filters = opts.Filters

	results, err := s.retrieve(query, searchOpts)
	if err != nil {
		return nil, err
	}

	metadata := models.AnswerMetadata{
		Mode:           mode,
		DocumentsFound: len(results),
	}

	if mode == models.AnswerModeStrict {
		assessment := s.config.Gate.Assess(results, query)
		metadata.Confidence = assessment.Confidence
		if !assessment.CanAnswer {
			s.logger.Info().
				Str("query", query).
				Int("results", len(results)).
				Float64("confidence", assessment.Confidence).
				Str("reason", assessment.Reason).
				Msg("Knowledge base cannot answer, refusing")
			metadata.Refused = true
			return &models.Answer{Text: RefusalMessage, Metadata: metadata}, nil
		}
	}

	contextText, used := BuildContext(results, s.config.MaxContextLength)
	images, fromUser, fromDocs := SelectImages(opts.UserImages, used, s.config.MaxImages)

	systemPrompt := lenientSystemPrompt
	if mode == models.AnswerModeStrict {
		systemPrompt = strictSystemPrompt
	}
	if len(used) > 0 {
		systemPrompt += "\n\n## Reference documents\n\n" + contextText
	} else {
		systemPrompt += "\n\n" + noDocumentsNote
	}

	metadata.RAGUsed = len(used) > 0
	metadata.DocumentsUsed = len(used)
	metadata.ContextLength = utf8.RuneCountInString(contextText)
	metadata.UserImages = fromUser
	metadata.DocumentImages = fromDocs
	metadata.AverageScore, metadata.MaxScore = scoreStats(used)
	for _, r := range used {
		metadata.Sources = append(metadata.Sources, r.Metadata.Source)
	}

	s.logger.Info().
		Str("query", query).
		Str("mode", string(mode)).
		Int("found", len(results)).
		Int("used", len(used)).
		Int("context_chars", metadata.ContextLength).
		Int("images", len(images)).
		Float64("max_score", metadata.MaxScore).
		Msg("Generating grounded answer")

	return s.generate(ctx, systemPrompt, query, images, metadata)
}

// answerWithoutRAG answers from general instructions only
func (s *Service) answerWithoutRAG(ctx context.Context, query string, opts models.AnswerOptions) (*models.Answer, error) {
	images, fromUser, _ := SelectImages(opts.UserImages, nil, s.config.MaxImages)
	metadata := models.AnswerMetadata{
		Mode:       opts.Mode,
		RAGUsed:    false,
		UserImages: fromUser,
	}

	s.logger.Info().Str("query", query).Msg("Generating answer without knowledge base")
	return s.generate(ctx, noRAGSystemPrompt, query, images, metadata)
}

func (s *Service) generate(ctx context.Context, systemPrompt, query string, images []models.ImageDescriptor, metadata models.AnswerMetadata) (*models.Answer, error) {
	start := time.Now()
	result, err := s.provider.GenerateText(ctx, systemPrompt, query, images, s.config.Completion)
	metadata.GenerationTimeMs = time.Since(start).Milliseconds()
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Dur("elapsed", time.Since(start)).Msg("Completion provider failed")
		return nil, &GenerationError{Err: err}
	}

	metadata.Provider = result.Provider
	metadata.Model = result.Model
	return &models.Answer{Text: result.Text, Metadata: metadata}, nil
}

// retrieve runs the search, converting an unexpected panic into a RetrievalError
func (s *Service) retrieve(query string, opts models.SearchOptions) (results []models.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RetrievalError{Query: query, Err: fmt.Errorf("%v", r)}
			s.logger.Error().Err(err).Str("query", query).Msg("Knowledge retrieval failed")
		}
	}()
	return s.search.Search(query, opts), nil
}

func scoreStats(results []models.SearchResult) (avg, maxScore float64) {
	if len(results) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Score
		maxScore = max(maxScore, r.Score)
	}
	return sum / float64(len(results)), maxScore
}
