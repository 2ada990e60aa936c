package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/kotae/internal/models"
)

// DocsLoader exports Google Docs as plain text through Drive
type DocsLoader struct {
	files DriveFiles
}

func NewDocsLoader(files DriveFiles) *DocsLoader {
	return &DocsLoader{files: files}
}

func (l *DocsLoader) Load(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
	id, ok := GoogleFileID(src.URL)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, src.URL)
	}

	data, err := l.files.Export(ctx, id, "text/plain")
	if err != nil {
		return nil, err
	}

	// Drive prefixes exports with a UTF-8 byte order mark
	text := strings.TrimPrefix(string(data), "\ufeff")
	return &models.LoadedContent{Content: strings.TrimSpace(text)}, nil
}
