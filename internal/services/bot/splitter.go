package bot

import "strings"

// DefaultMessageLimit is the maximum characters per outgoing chat message
const DefaultMessageLimit = 2000

// SplitMessage breaks text into chunks of at most limit characters,
// cutting at the last line break inside each window when there is one.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		window := runes[:limit]
		cut := lastIndexRune(window, '\n')
		next := cut + 1
		if cut <= 0 {
			cut, next = limit, limit
		}
		if chunk := strings.TrimRight(string(runes[:cut]), " \t\r\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = runes[next:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
