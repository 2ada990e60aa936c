package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/kotae/internal/common"
	"github.com/ternarybob/kotae/internal/httpclient"
	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// maxImageBytes caps a single image sent to a vision model
const maxImageBytes = 5 * 1024 * 1024

// supportedImageTypes are the media types both providers accept inline
var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// inlineImage is an image resolved to bytes, ready to attach to a request
type inlineImage struct {
	name     string
	mimeType string
	data     []byte
}

// ProviderFactory creates provider clients lazily and implements
// interfaces.CompletionProvider on top of Gemini and Claude.
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	llmConfig    *common.LLMConfig
	logger       arbor.ILogger
	httpClient   *http.Client
	retry        *RetryConfig

	mu           sync.Mutex
	geminiClient *genai.Client
	claudeClient *anthropic.Client
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(
	geminiConfig *common.GeminiConfig,
	claudeConfig *common.ClaudeConfig,
	llmConfig *common.LLMConfig,
	logger arbor.ILogger,
) *ProviderFactory {
	retry := NewDefaultRetryConfig()
	if llmConfig.MaxRetries >= 0 {
		retry.MaxRetries = llmConfig.MaxRetries
	}

	return &ProviderFactory{
		geminiConfig: geminiConfig,
		claudeConfig: claudeConfig,
		llmConfig:    llmConfig,
		logger:       logger,
		httpClient:   httpclient.NewDefaultHTTPClient(30 * time.Second),
		retry:        retry,
	}
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-sonnet-4-5" -> Claude
// - "claude/claude-sonnet-4-5" -> Claude (with prefix)
// - "gemini-2.5-flash" -> Gemini
// - "gemini/gemini-2.5-flash" -> Gemini (with prefix)
// - Empty string -> uses default provider from config
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	if model == "" {
		return ProviderType(f.llmConfig.DefaultProvider)
	}

	model = strings.ToLower(model)

	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return ProviderGemini
	}

	if strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return ProviderGemini
	}

	return ProviderType(f.llmConfig.DefaultProvider)
}

// NormalizeModel removes provider prefix from model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// GetDefaultModel returns the default model for a provider
func (f *ProviderFactory) GetDefaultModel(provider ProviderType) string {
	switch provider {
	case ProviderClaude:
		return f.claudeConfig.Model
	default:
		return f.geminiConfig.Model
	}
}

// GetGeminiClient returns a Gemini client, creating one if necessary
func (f *ProviderFactory) GetGeminiClient(ctx context.Context) (*genai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.geminiClient != nil {
		return f.geminiClient, nil
	}

	apiKey, err := common.ResolveAPIKey("gemini_api_key", f.geminiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Gemini API key: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	f.geminiClient = client
	return client, nil
}

// GetClaudeClient returns a Claude client, creating one if necessary
func (f *ProviderFactory) GetClaudeClient() (*anthropic.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claudeClient != nil {
		return f.claudeClient, nil
	}

	apiKey, err := common.ResolveAPIKey("claude_api_key", f.claudeConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Anthropic API key: %w", err)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	f.claudeClient = &client
	return f.claudeClient, nil
}

// GenerateText sends one system prompt, one user turn and optional images to the
// provider selected by opts.Model (or the configured default).
func (f *ProviderFactory) GenerateText(
	ctx context.Context,
	systemPrompt, userQuery string,
	images []models.ImageDescriptor,
	opts interfaces.CompletionOptions,
) (*interfaces.CompletionResult, error) {
	provider := f.DetectProvider(opts.Model)
	model := f.NormalizeModel(opts.Model)
	if model == "" {
		model = f.GetDefaultModel(provider)
	}

	if f.llmConfig.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.llmConfig.Timeout)
		defer cancel()
	}

	inline := f.resolveImages(ctx, images)

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("system_chars", len([]rune(systemPrompt))).
		Int("images", len(inline)).
		Msg("Generating content with provider")

	var (
		text string
		err  error
	)
	switch provider {
	case ProviderClaude:
		text, err = f.generateWithClaude(ctx, systemPrompt, userQuery, inline, opts, model)
	default:
		provider = ProviderGemini
		text, err = f.generateWithGemini(ctx, systemPrompt, userQuery, inline, opts, model)
	}
	if err != nil {
		return nil, err
	}

	return &interfaces.CompletionResult{
		Text:     text,
		Provider: string(provider),
		Model:    model,
	}, nil
}

// generateWithGemini generates content using Gemini API
func (f *ProviderFactory) generateWithGemini(
	ctx context.Context,
	systemPrompt, userQuery string,
	images []inlineImage,
	opts interfaces.CompletionOptions,
	model string,
) (string, error) {
	client, err := f.GetGeminiClient(ctx)
	if err != nil {
		return "", err
	}

	parts := make([]*genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img.data, img.mimeType))
	}
	parts = append(parts, genai.NewPartFromText(userQuery))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	var resp *genai.GenerateContentResponse
	err = f.withRetry(ctx, "Gemini", func() error {
		var callErr error
		resp, callErr = client.Models.GenerateContent(ctx, model, contents, config)
		return callErr
	})
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	responseText := resp.Text()
	if responseText == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return responseText, nil
}

// generateWithClaude generates content using Claude API
func (f *ProviderFactory) generateWithClaude(
	ctx context.Context,
	systemPrompt, userQuery string,
	images []inlineImage,
	opts interfaces.CompletionOptions,
	model string,
) (string, error) {
	client, err := f.GetClaudeClient()
	if err != nil {
		return "", err
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(images)+1)
	for _, img := range images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.mimeType, base64.StdEncoding.EncodeToString(img.data)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(userQuery))

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(opts.Temperature))
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	var resp *anthropic.Message
	err = f.withRetry(ctx, "Claude", func() error {
		var callErr error
		resp, callErr = client.Messages.New(ctx, params)
		return callErr
	})
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}
	return text.String(), nil
}

// withRetry runs call until it succeeds, the retry budget is spent or ctx ends
func (f *ProviderFactory) withRetry(ctx context.Context, name string, call func() error) error {
	var apiErr error
	for attempt := 0; attempt <= f.retry.MaxRetries; attempt++ {
		apiErr = call()
		if apiErr == nil {
			return nil
		}
		if errors.Is(apiErr, context.Canceled) || errors.Is(apiErr, context.DeadlineExceeded) {
			return apiErr
		}
		if attempt == f.retry.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			backoff = f.retry.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		} else {
			backoff = min(time.Duration(attempt+1)*f.retry.InitialBackoff, f.retry.MaxBackoff)
		}

		f.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msgf("Retrying %s API call", name)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%s API call failed after %d retries: %w", name, f.retry.MaxRetries, apiErr)
}

// resolveImages turns descriptors into inline bytes. Images that cannot be
// fetched or have an unsupported type are skipped.
func (f *ProviderFactory) resolveImages(ctx context.Context, images []models.ImageDescriptor) []inlineImage {
	resolved := make([]inlineImage, 0, len(images))
	for _, img := range images {
		data := img.Data
		mimeType := img.MimeType

		if len(data) == 0 {
			if img.URL == "" {
				continue
			}
			dl, err := httpclient.Get(ctx, f.httpClient, img.URL, "", maxImageBytes)
			if err != nil {
				f.logger.Warn().Err(err).Str("image", img.FileName).Msg("Failed to fetch image, skipping")
				continue
			}
			data = dl.Body
			if mimeType == "" {
				mimeType = dl.ContentType
			}
		}

		mimeType = normalizeMimeType(mimeType, data)
		if !supportedImageTypes[mimeType] {
			f.logger.Debug().Str("image", img.FileName).Str("mime_type", mimeType).Msg("Unsupported image type, skipping")
			continue
		}

		resolved = append(resolved, inlineImage{name: img.FileName, mimeType: mimeType, data: data})
	}
	return resolved
}

// normalizeMimeType strips parameters and sniffs the type when none is known
func normalizeMimeType(mimeType string, data []byte) string {
	if mimeType != "" {
		if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
			mimeType = mediaType
		}
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return strings.ToLower(mimeType)
}

// Close releases the cached clients
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geminiClient = nil
	f.claudeClient = nil
	return nil
}
