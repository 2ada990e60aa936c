package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/kotae/internal/models"
)

// formatResult renders one ranked result as a prompt section
func formatResult(index int, r models.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Document %d: %s ===\n", index+1, r.Metadata.Source)
	if r.Metadata.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", r.Metadata.URL)
	}
	if r.Metadata.Classification != "" {
		fmt.Fprintf(&b, "Classification: %s\n", r.Metadata.Classification)
	}
	if r.Metadata.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", r.Metadata.Category)
	}
	if r.Metadata.GoodBadExample != "" {
		fmt.Fprintf(&b, "Example: %s\n", r.Metadata.GoodBadExample)
	}
	fmt.Fprintf(&b, "Relevance: %.2f\n", r.Score)
	b.WriteString(r.Answer)
	b.WriteString("\n\n")
	return b.String()
}

// BuildContext concatenates whole results in rank order until the next one
// would push the total past budget characters. Results are never cut short.
// A non-positive budget means no limit.
func BuildContext(results []models.SearchResult, budget int) (string, []models.SearchResult) {
	var b strings.Builder
	total := 0
	used := 0

	for i, r := range results {
		entry := formatResult(i, r)
		size := utf8.RuneCountInString(entry)
		if budget > 0 && total+size > budget {
			break
		}
		b.WriteString(entry)
		total += size
		used++
	}

	return b.String(), results[:used]
}

// SelectImages picks up to maxImages images, taking the user's attachments
// first and filling the rest with images of the used documents in rank order.
func SelectImages(userImages []models.ImageDescriptor, used []models.SearchResult, maxImages int) (selected []models.ImageDescriptor, fromUser, fromDocuments int) {
	if maxImages <= 0 {
		return nil, 0, 0
	}

	for _, img := range userImages {
		if len(selected) == maxImages {
			return selected, fromUser, fromDocuments
		}
		img.Kind = models.ImageKindUser
		selected = append(selected, img)
		fromUser++
	}

	for _, r := range used {
		if r.Document == nil {
			continue
		}
		for _, img := range r.Document.Images {
			if len(selected) == maxImages {
				return selected, fromUser, fromDocuments
			}
			if img.URL == "" && len(img.Data) == 0 {
				continue
			}
			selected = append(selected, img)
			fromDocuments++
		}
	}

	return selected, fromUser, fromDocuments
}
