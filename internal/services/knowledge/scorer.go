package knowledge

import (
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/kotae/internal/models"
)

// Scoring weights. The total is an unnormalized sum of these contributions.
const (
	remarksKeywordWeight  = 5.0
	tokenOccurrenceWeight = 0.05
	tokenFrequencyCap     = 0.3
	contentPhraseWeight   = 0.5
	categoryWeight        = 0.3
	classificationWeight  = 0.4
	filenameTokenWeight   = 0.2
	remarksPhraseWeight   = 3.0
	remarksTokenWeight    = 1.0
	defaultExcerptLength  = 2000
	defaultExcerptLeadIn  = 100
	ellipsis              = "..."
)

// remarkSeparators split the remarks field into exact-match keywords
var remarkSeparators = strings.NewReplacer("、", ",", "，", ",")

// Scored is the outcome of scoring one document against one query
type Scored struct {
	Score        float64
	MatchDetails []models.MatchDetail
	Excerpt      string
}

// Scorer computes additive relevance scores and extracts excerpts.
// It performs no I/O and is safe for concurrent use.
type Scorer struct {
	excerptLength int
	excerptLeadIn int
}

// NewScorer creates a scorer with the given excerpt window; non-positive values use the defaults
func NewScorer(excerptLength, excerptLeadIn int) *Scorer {
	if excerptLength <= 0 {
		excerptLength = defaultExcerptLength
	}
	if excerptLeadIn < 0 || excerptLeadIn >= excerptLength {
		excerptLeadIn = min(defaultExcerptLeadIn, excerptLength/2)
	}
	return &Scorer{excerptLength: excerptLength, excerptLeadIn: excerptLeadIn}
}

// Score computes the relevance of doc for query. tokens must be Tokenize(query).
func (s *Scorer) Score(doc *models.Document, query string, tokens Tokens) Scored {
	q := fold(strings.TrimSpace(query))
	content := fold(doc.Content)
	source := fold(doc.Source)
	hasRemarks := doc.HasRemarks()
	remarks := fold(strings.TrimSpace(doc.Remarks))
	category := fold(strings.TrimSpace(doc.Category))
	classification := fold(strings.TrimSpace(doc.Classification))
	sorted := tokens.Sorted()

	var result Scored
	add := func(signal models.MatchSignal, term string, value float64) {
		result.Score += value
		result.MatchDetails = append(result.MatchDetails, models.MatchDetail{Signal: signal, Term: term, Value: value})
	}

	if q != "" && hasRemarks {
		for _, keyword := range remarkKeywords(remarks) {
			if strings.Contains(q, keyword) {
				add(models.SignalRemarksKeyword, keyword, remarksKeywordWeight)
			}
		}
	}

	for _, tok := range sorted {
		if n := strings.Count(content, tok); n > 0 {
			add(models.SignalTokenFrequency, tok, min(float64(n)*tokenOccurrenceWeight, tokenFrequencyCap))
		}
	}

	if q != "" && strings.Contains(content, q) {
		add(models.SignalContentPhrase, "", contentPhraseWeight)
	}

	if q != "" && category != "" && (strings.Contains(q, category) || strings.Contains(category, q)) {
		add(models.SignalCategory, doc.Category, categoryWeight)
	}

	if q != "" && classification != "" && (strings.Contains(q, classification) || strings.Contains(classification, q)) {
		add(models.SignalClassification, doc.Classification, classificationWeight)
	}

	if source != "" {
		for _, tok := range sorted {
			if strings.Contains(source, tok) {
				add(models.SignalFilenameToken, tok, filenameTokenWeight)
			}
		}
	}

	if hasRemarks {
		if q != "" && strings.Contains(remarks, q) {
			add(models.SignalRemarksPhrase, "", remarksPhraseWeight)
		}
		for _, tok := range sorted {
			if strings.Contains(remarks, tok) {
				add(models.SignalRemarksToken, tok, remarksTokenWeight)
			}
		}
	}

	result.Excerpt = s.Excerpt(doc.Content, sorted)
	return result
}

// remarkKeywords splits folded remarks on ASCII, full-width and ideographic commas
func remarkKeywords(remarks string) []string {
	parts := strings.Split(remarkSeparators.Replace(remarks), ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}

// Excerpt returns a window of content around the earliest occurrence of any token.
// Lengths are in characters. Content that fits the window is returned unchanged.
func (s *Scorer) Excerpt(content string, tokens []string) string {
	total := utf8.RuneCountInString(content)
	if total <= s.excerptLength {
		return content
	}

	runes := []rune(content)
	pos := firstMatch(fold(content), tokens)
	if pos < 0 {
		return string(runes[:s.excerptLength]) + ellipsis
	}

	start := max(0, pos-s.excerptLeadIn)
	end := min(total, start+s.excerptLength)

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(string(runes[start:end]))
	if end < total {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// firstMatch returns the earliest character offset of any token in folded, or -1
func firstMatch(folded string, tokens []string) int {
	best := -1
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		idx := strings.Index(folded, tok)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
		}
	}
	if best < 0 {
		return -1
	}
	return utf8.RuneCountInString(folded[:best])
}
