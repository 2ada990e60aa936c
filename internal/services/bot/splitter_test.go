package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"empty", "   ", 10, nil},
		{"fits", "short answer", 20, []string{"short answer"}},
		{"line boundary", "first line\nsecond line", 15, []string{"first line", "second line"}},
		{"last break in window", "aa\nbb\ncc\ndd", 6, []string{"aa\nbb", "cc\ndd"}},
		{"hard cut without breaks", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"counts characters not bytes", "あいうえおかきくけこ", 5, []string{"あいうえお", "かきくけこ"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitMessage(tt.text, tt.limit))
		})
	}
}

func TestSplitMessage_DefaultLimit(t *testing.T) {
	line := strings.Repeat("x", 99) + "\n"
	text := strings.Repeat(line, 50)

	chunks := SplitMessage(text, 0)
	assert.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), DefaultMessageLimit)
	}
	assert.Equal(t, strings.TrimSpace(text), strings.Join(chunks, "\n"))
}
