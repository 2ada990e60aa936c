package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"google.golang.org/api/slides/v1"

	"github.com/ternarybob/kotae/internal/httpclient"
	"github.com/ternarybob/kotae/internal/models"
)

// maxSlideImageBytes caps each embedded image downloaded from a presentation
const maxSlideImageBytes = 5 * 1024 * 1024

// SlidesLoader flattens a presentation into text and collects its images.
// Slides content urls expire, so image bytes are downloaded at load time when a client is set.
type SlidesLoader struct {
	presentations Presentations
	httpClient    *http.Client
	logger        arbor.ILogger
}

func NewSlidesLoader(presentations Presentations, httpClient *http.Client, logger arbor.ILogger) *SlidesLoader {
	return &SlidesLoader{presentations: presentations, httpClient: httpClient, logger: logger}
}

func (l *SlidesLoader) Load(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
	id, ok := GoogleFileID(src.URL)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, src.URL)
	}

	presentation, err := l.presentations.GetPresentation(ctx, id)
	if err != nil {
		return nil, err
	}

	loaded := FlattenPresentation(presentation, src.DisplayName())
	if l.httpClient != nil {
		for i := range loaded.Images {
			l.fetchImage(ctx, &loaded.Images[i])
		}
	}
	return loaded, nil
}

func (l *SlidesLoader) fetchImage(ctx context.Context, img *models.ImageDescriptor) {
	dl, err := httpclient.Get(ctx, l.httpClient, img.URL, "", maxSlideImageBytes)
	if err != nil {
		l.logger.Debug().Err(err).Str("image", img.FileName).Msg("Failed to download slide image, keeping url")
		return
	}
	img.Data = dl.Body
	img.MimeType = dl.ContentType
}

// FlattenPresentation renders every slide's text, tables and speaker notes in order
func FlattenPresentation(p *slides.Presentation, source string) *models.LoadedContent {
	var b strings.Builder
	var images []models.ImageDescriptor

	if p.Title != "" {
		b.WriteString(p.Title)
		b.WriteString("\n\n")
	}

	for i, slide := range p.Slides {
		n := i + 1
		fmt.Fprintf(&b, "--- Slide %d ---\n", n)

		collector := &slideCollector{slide: n, source: source}
		collector.walk(slide.PageElements)
		b.WriteString(collector.text.String())
		images = append(images, collector.images...)

		if slide.SlideProperties != nil && slide.SlideProperties.NotesPage != nil {
			notes := &slideCollector{slide: n, source: source}
			notes.walk(slide.SlideProperties.NotesPage.PageElements)
			if text := strings.TrimSpace(notes.text.String()); text != "" {
				b.WriteString("Notes: ")
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	return &models.LoadedContent{Content: strings.TrimSpace(b.String()), Images: images}
}

type slideCollector struct {
	slide  int
	source string
	text   strings.Builder
	images []models.ImageDescriptor
}

func (c *slideCollector) walk(elements []*slides.PageElement) {
	for _, el := range elements {
		switch {
		case el.Shape != nil:
			c.writeText(el.Shape.Text)
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				cells := make([]string, 0, len(row.TableCells))
				for _, cell := range row.TableCells {
					cells = append(cells, strings.TrimSpace(textOf(cell.Text)))
				}
				c.text.WriteString(strings.Join(cells, " | "))
				c.text.WriteString("\n")
			}
		case el.Image != nil && el.Image.ContentUrl != "":
			c.images = append(c.images, models.ImageDescriptor{
				Source:      c.source,
				FileName:    fmt.Sprintf("slide-%d-image-%d", c.slide, len(c.images)+1),
				Position:    fmt.Sprintf("slide %d", c.slide),
				Description: el.Description,
				Kind:        models.ImageKindEmbedded,
				URL:         el.Image.ContentUrl,
			})
		case el.ElementGroup != nil:
			c.walk(el.ElementGroup.Children)
		}
	}
}

func (c *slideCollector) writeText(tc *slides.TextContent) {
	if text := textOf(tc); strings.TrimSpace(text) != "" {
		c.text.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			c.text.WriteString("\n")
		}
	}
}

func textOf(tc *slides.TextContent) string {
	if tc == nil {
		return ""
	}
	var b strings.Builder
	for _, el := range tc.TextElements {
		if el.TextRun != nil {
			b.WriteString(el.TextRun.Content)
		}
	}
	return b.String()
}
