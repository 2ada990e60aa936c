package sources

import (
	"context"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/kotae/internal/models"
)

// TextFileLoader downloads text files from Drive. Markdown is flattened to plain
// text and its image references become image descriptors.
type TextFileLoader struct {
	files DriveFiles
}

func NewTextFileLoader(files DriveFiles) *TextFileLoader {
	return &TextFileLoader{files: files}
}

func (l *TextFileLoader) Load(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
	id, ok := GoogleFileID(src.URL)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, src.URL)
	}

	file, err := l.files.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(file.Data) {
		return nil, fmt.Errorf("file %s is not UTF-8 text", src.DisplayName())
	}

	name := src.FileName
	if name == "" {
		name = file.Name
	}
	content := strings.TrimPrefix(string(file.Data), "\ufeff")
	if isMarkdown(name, file.MimeType) {
		return FlattenMarkdown(content, src.DisplayName()), nil
	}
	return &models.LoadedContent{Content: strings.TrimSpace(content)}, nil
}

func isMarkdown(name, mimeType string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return strings.HasPrefix(mimeType, "text/markdown") || strings.HasPrefix(mimeType, "text/x-markdown")
}

// FlattenMarkdown renders markdown to plain text, keeping headings, list items,
// table rows and code on their own lines. Image references are collected separately.
func FlattenMarkdown(markdown, source string) *models.LoadedContent {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
	)
	src := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(src))

	f := &markdownFlattener{source: src, origin: source}
	_ = ast.Walk(doc, f.walk)

	return &models.LoadedContent{
		Content: strings.TrimSpace(collapseBlankLines(f.out.String())),
		Images:  f.images,
	}
}

type markdownFlattener struct {
	source []byte
	origin string
	out    strings.Builder
	images []models.ImageDescriptor
}

func (f *markdownFlattener) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindText:
		if entering {
			t := n.(*ast.Text)
			f.out.Write(t.Segment.Value(f.source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				f.out.WriteString("\n")
			}
		}
	case ast.KindString:
		if entering {
			f.out.Write(n.(*ast.String).Value)
		}
	case ast.KindAutoLink:
		if entering {
			f.out.Write(n.(*ast.AutoLink).URL(f.source))
		}
	case ast.KindImage:
		if entering {
			img := n.(*ast.Image)
			f.images = append(f.images, models.ImageDescriptor{
				Source:      f.origin,
				FileName:    path.Base(string(img.Destination)),
				Position:    fmt.Sprintf("image %d", len(f.images)+1),
				Description: f.childText(img),
				Kind:        models.ImageKindEmbedded,
				URL:         string(img.Destination),
			})
			return ast.WalkSkipChildren, nil
		}
	case ast.KindCodeBlock, ast.KindFencedCodeBlock:
		if entering {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				f.out.Write(seg.Value(f.source))
			}
			f.out.WriteString("\n")
			return ast.WalkSkipChildren, nil
		}
	case ast.KindHeading, ast.KindParagraph, ast.KindListItem, ast.KindBlockquote, ast.KindThematicBreak:
		if !entering {
			f.out.WriteString("\n")
		}
	case extast.KindTableCell:
		if !entering && n.NextSibling() != nil {
			f.out.WriteString(" | ")
		}
	case extast.KindTableHeader, extast.KindTableRow:
		if !entering {
			f.out.WriteString("\n")
		}
	}
	return ast.WalkContinue, nil
}

// childText concatenates the text leaves below n
func (f *markdownFlattener) childText(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && c.Kind() == ast.KindText {
			b.Write(c.(*ast.Text).Segment.Value(f.source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
