package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/kotae/internal/models"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		src      models.SourceDescriptor
		expected models.SourceKind
	}{
		{"Slides url", models.SourceDescriptor{URL: "https://docs.google.com/presentation/d/1AbCdEfGhIjKlMn/edit"}, models.SourceKindSlides},
		{"Docs url", models.SourceDescriptor{URL: "https://docs.google.com/document/d/1AbCdEfGhIjKlMn/edit"}, models.SourceKindDocs},
		{"Spreadsheet url", models.SourceDescriptor{URL: "https://docs.google.com/spreadsheets/d/1AbCdEfGhIjKlMn/edit"}, models.SourceKindUnknown},
		{"Notion url", models.SourceDescriptor{URL: "https://www.notion.so/team/Guide-0123456789abcdef0123456789abcdef"}, models.SourceKindNotion},
		{"Notion site", models.SourceDescriptor{URL: "https://acme.notion.site/Guide-0123456789abcdef0123456789abcdef"}, models.SourceKindNotion},
		{"Drive markdown", models.SourceDescriptor{URL: "https://drive.google.com/file/d/1AbCdEfGhIjKlMn/view", FileName: "手順.md"}, models.SourceKindTextFile},
		{"Drive image", models.SourceDescriptor{URL: "https://drive.google.com/file/d/1AbCdEfGhIjKlMn/view", FileName: "screen.PNG"}, models.SourceKindImage},
		{"Drive without extension", models.SourceDescriptor{URL: "https://drive.google.com/file/d/1AbCdEfGhIjKlMn/view"}, models.SourceKindUnknown},
		{"Direct image url", models.SourceDescriptor{URL: "https://cdn.example.com/a/b.jpg?size=large"}, models.SourceKindImage},
		{"Website", models.SourceDescriptor{URL: "https://support.zoom.us/hc/ja"}, models.SourceKindWebsite},
		{"Type column wins", models.SourceDescriptor{URL: "https://example.com/page", Type: "スライド"}, models.SourceKindSlides},
		{"Type column case insensitive", models.SourceDescriptor{URL: "https://example.com/page", Type: " Notion "}, models.SourceKindNotion},
		{"Unknown type falls back to url", models.SourceDescriptor{URL: "https://example.com/page", Type: "手順書"}, models.SourceKindWebsite},
		{"Not a url", models.SourceDescriptor{URL: "社内共有フォルダ"}, models.SourceKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.src))
		})
	}
}
