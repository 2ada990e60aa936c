package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"Nil error", nil, false},
		{"HTTP 429", errors.New("Error 429, Message: too many requests"), true},
		{"Resource exhausted", errors.New("status: RESOURCE_EXHAUSTED"), true},
		{"Anthropic rate limit", errors.New(`{"type":"rate_limit_error"}`), true},
		{"Server error", errors.New("500 internal"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRateLimitError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected time.Duration
	}{
		{"Nil error", nil, 0},
		{"Please retry in", errors.New("Please retry in 12.5s., Status: RESOURCE_EXHAUSTED"), 12500 * time.Millisecond},
		{"retryDelay field", errors.New("retryDelay: 7s"), 7 * time.Second},
		{"No delay", errors.New("quota exceeded"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractRetryDelay(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(0, 0))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(1, 0))
	assert.Equal(t, 8*time.Second, cfg.CalculateBackoff(2, 0))
	assert.Equal(t, 11*time.Second, cfg.CalculateBackoff(0, 10*time.Second))
	assert.Equal(t, cfg.MaxBackoff, cfg.CalculateBackoff(10, 0))
}
