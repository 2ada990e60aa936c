package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/ternarybob/kotae/internal/models"
)

// NotionBlocks lists the children of a block; notionapi.Client.Block satisfies it
type NotionBlocks interface {
	GetChildren(ctx context.Context, id notionapi.BlockID, pagination *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
}

// NewNotionClient creates the API client for an integration token
func NewNotionClient(token string) *notionapi.Client {
	return notionapi.NewClient(notionapi.Token(token))
}

// NotionLoader flattens the top-level blocks of a Notion page
type NotionLoader struct {
	blocks NotionBlocks
}

func NewNotionLoader(blocks NotionBlocks) *NotionLoader {
	return &NotionLoader{blocks: blocks}
}

func (l *NotionLoader) Load(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
	pageID, ok := NotionPageID(src.URL)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, src.URL)
	}

	var blocks []notionapi.Block
	cursor := ""
	for {
		resp, err := l.blocks.GetChildren(ctx, notionapi.BlockID(pageID), &notionapi.Pagination{
			StartCursor: notionapi.Cursor(cursor),
			PageSize:    100,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read notion page %s: %w", pageID, err)
		}
		blocks = append(blocks, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	return FlattenNotionBlocks(blocks, src.DisplayName()), nil
}

// FlattenNotionBlocks renders text blocks one per line and collects image blocks
func FlattenNotionBlocks(blocks []notionapi.Block, source string) *models.LoadedContent {
	var lines []string
	var images []models.ImageDescriptor
	add := func(prefix string, rich []notionapi.RichText) {
		if text := strings.TrimSpace(plainText(rich)); text != "" {
			lines = append(lines, prefix+text)
		}
	}

	for _, block := range blocks {
		switch b := block.(type) {
		case *notionapi.ParagraphBlock:
			add("", b.Paragraph.RichText)
		case *notionapi.Heading1Block:
			add("# ", b.Heading1.RichText)
		case *notionapi.Heading2Block:
			add("## ", b.Heading2.RichText)
		case *notionapi.Heading3Block:
			add("### ", b.Heading3.RichText)
		case *notionapi.BulletedListItemBlock:
			add("- ", b.BulletedListItem.RichText)
		case *notionapi.NumberedListItemBlock:
			add("1. ", b.NumberedListItem.RichText)
		case *notionapi.ToDoBlock:
			if b.ToDo.Checked {
				add("[x] ", b.ToDo.RichText)
			} else {
				add("[ ] ", b.ToDo.RichText)
			}
		case *notionapi.QuoteBlock:
			add("> ", b.Quote.RichText)
		case *notionapi.CalloutBlock:
			add("", b.Callout.RichText)
		case *notionapi.ToggleBlock:
			add("", b.Toggle.RichText)
		case *notionapi.CodeBlock:
			add("", b.Code.RichText)
		case *notionapi.ImageBlock:
			url := ""
			if b.Image.File != nil {
				url = b.Image.File.URL
			} else if b.Image.External != nil {
				url = b.Image.External.URL
			}
			if url == "" {
				continue
			}
			images = append(images, models.ImageDescriptor{
				Source:      source,
				FileName:    fmt.Sprintf("notion-image-%d", len(images)+1),
				Position:    fmt.Sprintf("after line %d", len(lines)),
				Description: plainText(b.Image.Caption),
				Kind:        models.ImageKindEmbedded,
				URL:         url,
			})
		}
	}

	return &models.LoadedContent{Content: strings.Join(lines, "\n"), Images: images}
}

func plainText(rich []notionapi.RichText) string {
	var b strings.Builder
	for _, r := range rich {
		b.WriteString(r.PlainText)
	}
	return b.String()
}
