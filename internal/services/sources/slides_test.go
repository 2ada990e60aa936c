package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"google.golang.org/api/slides/v1"

	"github.com/ternarybob/kotae/internal/models"
)

func textShape(s string) *slides.PageElement {
	return &slides.PageElement{Shape: &slides.Shape{Text: &slides.TextContent{
		TextElements: []*slides.TextElement{{TextRun: &slides.TextRun{Content: s}}},
	}}}
}

func testPresentation() *slides.Presentation {
	return &slides.Presentation{
		Title: "配信マニュアル",
		Slides: []*slides.Page{
			{
				PageElements: []*slides.PageElement{
					textShape("OBSの設定\n"),
					{Image: &slides.Image{ContentUrl: "https://lh3.googleusercontent.com/a"}, Description: "設定画面"},
				},
				SlideProperties: &slides.SlideProperties{NotesPage: &slides.Page{
					PageElements: []*slides.PageElement{textShape("ビットレートに注意")},
				}},
			},
			{
				PageElements: []*slides.PageElement{
					{ElementGroup: &slides.Group{Children: []*slides.PageElement{textShape("グループ内テキスト")}}},
					{Table: &slides.Table{TableRows: []*slides.TableRow{
						{TableCells: []*slides.TableCell{
							{Text: &slides.TextContent{TextElements: []*slides.TextElement{{TextRun: &slides.TextRun{Content: "項目\n"}}}}},
							{Text: &slides.TextContent{TextElements: []*slides.TextElement{{TextRun: &slides.TextRun{Content: "値\n"}}}}},
						}},
					}}},
				},
			},
		},
	}
}

func TestFlattenPresentation(t *testing.T) {
	loaded := FlattenPresentation(testPresentation(), "配信マニュアル")

	assert.Contains(t, loaded.Content, "配信マニュアル")
	assert.Contains(t, loaded.Content, "--- Slide 1 ---\nOBSの設定\n")
	assert.Contains(t, loaded.Content, "Notes: ビットレートに注意")
	assert.Contains(t, loaded.Content, "--- Slide 2 ---\nグループ内テキスト\n項目 | 値")

	require.Len(t, loaded.Images, 1)
	img := loaded.Images[0]
	assert.Equal(t, "slide-1-image-1", img.FileName)
	assert.Equal(t, "slide 1", img.Position)
	assert.Equal(t, "設定画面", img.Description)
	assert.Equal(t, models.ImageKindEmbedded, img.Kind)
	assert.Equal(t, "https://lh3.googleusercontent.com/a", img.URL)
}

func TestSlidesLoader_Load(t *testing.T) {
	loader := NewSlidesLoader(fakePresentations{"1AbCdEfGhIjKlMn": testPresentation()}, nil, arbor.NewLogger())

	loaded, err := loader.Load(context.Background(), models.SourceDescriptor{
		URL: "https://docs.google.com/presentation/d/1AbCdEfGhIjKlMn/edit",
	})
	require.NoError(t, err)
	assert.Contains(t, loaded.Content, "OBSの設定")

	_, err = loader.Load(context.Background(), models.SourceDescriptor{URL: "https://example.com/deck"})
	assert.ErrorIs(t, err, ErrInvalidURL)
}
