package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/kotae/internal/models"
)

const previewLength = 300

// formatSearchResults formats ranked results as markdown
func formatSearchResults(query string, results []models.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\" (%d results)\n\n", query, len(results)))

	if len(results) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("### %d. %s (score %.2f)\n", i+1, r.Metadata.Source, r.Score))
		if r.Metadata.URL != "" {
			sb.WriteString(fmt.Sprintf("**URL:** %s\n", r.Metadata.URL))
		}
		if labels := metadataLabels(r.Metadata); labels != "" {
			sb.WriteString(fmt.Sprintf("**Labels:** %s\n", labels))
		}
		if r.Metadata.ImageCount > 0 {
			sb.WriteString(fmt.Sprintf("**Images:** %d\n", r.Metadata.ImageCount))
		}
		sb.WriteString("\n#### Excerpt:\n")
		sb.WriteString(preview(r.Answer))
		sb.WriteString("\n\n")

		if len(r.MatchDetails) > 0 {
			details := make([]string, 0, len(r.MatchDetails))
			for _, d := range r.MatchDetails {
				details = append(details, d.String())
			}
			sb.WriteString(fmt.Sprintf("**Matched:** %s\n", strings.Join(details, ", ")))
		}
		sb.WriteString("\n---\n\n")
	}

	return sb.String()
}

// formatAssessment formats a gate decision with the evidence it was based on
func formatAssessment(query string, a models.Assessment, results []models.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Assessment for \"%s\"\n\n", query))
	if a.CanAnswer {
		sb.WriteString("**Answerable:** yes\n")
	} else {
		sb.WriteString("**Answerable:** no\n")
	}
	sb.WriteString(fmt.Sprintf("**Confidence:** %.2f\n", a.Confidence))
	sb.WriteString(fmt.Sprintf("**Reason:** %s\n", a.Reason))

	if len(results) > 0 {
		sb.WriteString("\n### Evidence\n")
		for i, r := range results {
			sb.WriteString(fmt.Sprintf("%d. %s (%.2f)\n", i+1, r.Metadata.Source, r.Score))
		}
	}
	return sb.String()
}

// formatStatus formats the corpus status
func formatStatus(s models.CorpusStatus) string {
	var sb strings.Builder
	sb.WriteString("## Knowledge Base Status\n\n")
	sb.WriteString(fmt.Sprintf("**Initialized:** %t\n", s.Initialized))
	sb.WriteString(fmt.Sprintf("**Rebuilding:** %t\n", s.Rebuilding))
	sb.WriteString(fmt.Sprintf("**Documents:** %d\n", s.DocumentCount))
	sb.WriteString(fmt.Sprintf("**Images:** %d\n", s.ImageCount))
	sb.WriteString(fmt.Sprintf("**Load errors:** %d\n", s.ErrorCount))
	if !s.LastBuildTime.IsZero() {
		sb.WriteString(fmt.Sprintf("**Last build:** %s\n", s.LastBuildTime.Format(time.RFC3339)))
	}
	if s.LastError != "" {
		sb.WriteString(fmt.Sprintf("**Last error:** %s\n", s.LastError))
	}
	return sb.String()
}

func formatNotReady(s models.CorpusStatus) string {
	if s.Rebuilding {
		return "The knowledge base is still loading. Try again shortly."
	}
	if s.LastError != "" {
		return fmt.Sprintf("The knowledge base is not available: %s", s.LastError)
	}
	return "The knowledge base has not been built yet. Run rebuild_corpus first."
}

// formatBuildResult formats a finished rebuild
func formatBuildResult(r *models.BuildResult) string {
	return fmt.Sprintf("Knowledge base rebuilt: %d/%d sources loaded (%d failed), %d images in %s",
		r.Loaded, r.Total, r.Failed, r.ImageCount, r.Duration().Round(time.Second))
}

func metadataLabels(m models.ResultMetadata) string {
	var labels []string
	for _, v := range []string{m.Classification, m.Category, m.GoodBadExample, m.Type} {
		if v != "" {
			labels = append(labels, v)
		}
	}
	return strings.Join(labels, " / ")
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
