package knowledge

import (
	"sort"
	"strings"
	"unicode"
)

// Tokens is a case-folded, de-duplicated set of query tokens
type Tokens map[string]struct{}

// Has reports whether token is in the set
func (t Tokens) Has(token string) bool {
	_, ok := t[token]
	return ok
}

// Sorted returns the tokens in lexical order so callers iterate deterministically
func (t Tokens) Sorted() []string {
	out := make([]string, 0, len(t))
	for tok := range t {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

type runeClass func(r rune) bool

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isHiragana(r rune) bool { return unicode.Is(unicode.Hiragana, r) }

// Prolonged sound mark and the middle dot share the katakana block but not the script table.
func isKatakana(r rune) bool {
	return unicode.Is(unicode.Katakana, r) || (r >= 0x30A0 && r <= 0x30FF)
}

func isHan(r rune) bool { return unicode.Is(unicode.Han, r) }

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

// Tokenize splits a query into matchable tokens. Each pass runs over the whole
// input independently, so tokens from different passes may overlap:
//   - maximal ASCII letter/digit runs
//   - hiragana, katakana and Han runs of two or more characters
//   - every single katakana character and every uppercase ASCII letter
//
// All tokens are lower-cased. There is no stemming or stopword removal.
func Tokenize(query string) Tokens {
	tokens := make(Tokens)
	if query == "" {
		return tokens
	}

	runes := []rune(query)
	collectRuns(runes, isASCIIAlnum, 1, tokens)
	collectRuns(runes, isHiragana, 2, tokens)
	collectRuns(runes, isKatakana, 2, tokens)
	collectRuns(runes, isHan, 2, tokens)

	for _, r := range runes {
		if isKatakana(r) || isASCIIUpper(r) {
			tokens[fold(string(r))] = struct{}{}
		}
	}

	return tokens
}

func collectRuns(runes []rune, in runeClass, minLen int, tokens Tokens) {
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= minLen {
			tokens[fold(string(runes[start:end]))] = struct{}{}
		}
		start = -1
	}

	for i, r := range runes {
		if in(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(runes))
}

// fold lower-cases rune by rune so character offsets survive case folding
func fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}
