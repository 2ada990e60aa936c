package sources

import (
	"context"
	"fmt"

	"google.golang.org/api/slides/v1"
)

type fakeDriveFiles struct {
	exports   map[string][]byte
	downloads map[string]*DriveFile
	exported  []string
}

func (f *fakeDriveFiles) Export(ctx context.Context, fileID, mimeType string) ([]byte, error) {
	f.exported = append(f.exported, fileID+":"+mimeType)
	data, ok := f.exports[fileID]
	if !ok {
		return nil, fmt.Errorf("export file %s: not found", fileID)
	}
	return data, nil
}

func (f *fakeDriveFiles) Download(ctx context.Context, fileID string) (*DriveFile, error) {
	file, ok := f.downloads[fileID]
	if !ok {
		return nil, fmt.Errorf("download file %s: not found", fileID)
	}
	return file, nil
}

type fakePresentations map[string]*slides.Presentation

func (f fakePresentations) GetPresentation(ctx context.Context, id string) (*slides.Presentation, error) {
	p, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("get presentation %s: not found", id)
	}
	return p, nil
}
