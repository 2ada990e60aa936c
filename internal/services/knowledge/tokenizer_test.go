package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{
			name:     "Empty query",
			query:    "",
			expected: []string{},
		},
		{
			name:     "Lowercase ASCII words",
			query:    "hello world",
			expected: []string{"hello", "world"},
		},
		{
			name:     "Letters and digits form one run",
			query:    "abc123 def",
			expected: []string{"abc123", "def"},
		},
		{
			name:     "Uppercase letters also emitted singly",
			query:    "ABC",
			expected: []string{"a", "abc", "b", "c"},
		},
		{
			name:     "Duplicates collapse after folding",
			query:    "obs OBS",
			expected: []string{"b", "o", "obs", "s"},
		},
		{
			name:     "Mixed scripts",
			query:    "OBS設定について教えて",
			expected: []string{"b", "o", "obs", "s", "えて", "について", "設定"},
		},
		{
			name:     "Katakana run and single characters",
			query:    "カメラ",
			expected: []string{"カ", "カメラ", "メ", "ラ"},
		},
		{
			name:     "Single katakana character",
			query:    "ア",
			expected: []string{"ア"},
		},
		{
			name:     "Single Han character is dropped",
			query:    "日",
			expected: []string{},
		},
		{
			name:     "Single hiragana character is dropped",
			query:    "の",
			expected: []string{},
		},
		{
			name:     "Punctuation separates runs",
			query:    "zoom, teams。会議室",
			expected: []string{"teams", "zoom", "会議室"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.query).Sorted())
		})
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	queries := []string{"", "OBS設定について教えて", "Zoom の録画 ZOOM", "カメラ設定 HDMI 1080p"}
	for _, q := range queries {
		assert.Equal(t, Tokenize(q), Tokenize(q), "query %q", q)
	}
}

func TestTokens_Has(t *testing.T) {
	tokens := Tokenize("Stream Deck")
	assert.True(t, tokens.Has("stream"))
	assert.True(t, tokens.Has("d"))
	assert.False(t, tokens.Has("Stream"))
}
