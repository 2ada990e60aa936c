package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/httpclient"
	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
)

const describeImagePrompt = `Describe this image for a search index.
List every visible piece of text verbatim, then summarise what the image shows in two or three sentences.
Write the summary in the same language as the text in the image. Do not add commentary.`

// ImageLoader loads a standalone image and turns it into searchable text with a
// vision model. Without a describer the document only carries the file name.
type ImageLoader struct {
	files      DriveFiles
	httpClient *http.Client
	describer  interfaces.CompletionProvider
	logger     arbor.ILogger
}

func NewImageLoader(files DriveFiles, httpClient *http.Client, describer interfaces.CompletionProvider, logger arbor.ILogger) *ImageLoader {
	return &ImageLoader{files: files, httpClient: httpClient, describer: describer, logger: logger}
}

func (l *ImageLoader) Load(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
	img, err := l.fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	if l.describer != nil {
		result, err := l.describer.GenerateText(ctx, describeImagePrompt, "Describe the attached image.", []models.ImageDescriptor{img},
			interfaces.CompletionOptions{Temperature: 0.1, MaxTokens: 1024})
		if err != nil {
			l.logger.Warn().Err(err).Str("source", src.DisplayName()).Msg("Failed to describe image, indexing file name only")
		} else {
			img.Description = strings.TrimSpace(result.Text)
		}
	}

	var b strings.Builder
	b.WriteString("Image: ")
	b.WriteString(img.FileName)
	if img.Description != "" {
		b.WriteString("\n")
		b.WriteString(img.Description)
	}

	return &models.LoadedContent{Content: b.String(), Images: []models.ImageDescriptor{img}}, nil
}

func (l *ImageLoader) fetch(ctx context.Context, src models.SourceDescriptor) (models.ImageDescriptor, error) {
	img := models.ImageDescriptor{
		Source:   src.DisplayName(),
		FileName: src.DisplayName(),
		Kind:     models.ImageKindStandalone,
	}

	if hostOf(src.URL) == "drive.google.com" {
		id, ok := GoogleFileID(src.URL)
		if !ok {
			return img, ErrInvalidURL
		}
		if l.files == nil {
			return img, fmt.Errorf("google drive is not configured")
		}
		file, err := l.files.Download(ctx, id)
		if err != nil {
			return img, err
		}
		if src.FileName == "" && file.Name != "" {
			img.FileName = file.Name
		}
		img.Data = file.Data
		img.MimeType = file.MimeType
		return img, nil
	}

	dl, err := httpclient.Get(ctx, l.httpClient, src.URL, "", MaxDriveFileSize)
	if err != nil {
		return img, err
	}
	img.URL = src.URL
	img.Data = dl.Body
	img.MimeType = dl.ContentType
	return img, nil
}
