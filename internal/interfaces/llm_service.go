package interfaces

import (
	"context"

	"github.com/ternarybob/kotae/internal/models"
)

// CompletionOptions are pass-through generation settings
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
	Model       string // Optional model override
}

// CompletionResult is the text produced by a provider
type CompletionResult struct {
	Text     string
	Provider string
	Model    string
}

// CompletionProvider generates text, optionally looking at images.
// Implementations own timeout and retry policy.
type CompletionProvider interface {
	GenerateText(ctx context.Context, systemPrompt, userQuery string, images []models.ImageDescriptor, opts CompletionOptions) (*CompletionResult, error)
}
