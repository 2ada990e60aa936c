package sources

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/slides/v1"
)

// MaxDriveFileSize caps downloaded and exported Drive content
const MaxDriveFileSize = 10 * 1024 * 1024

var googleScopes = []string{
	sheets.SpreadsheetsReadonlyScope,
	slides.PresentationsReadonlyScope,
	drive.DriveReadonlyScope,
}

// GoogleClients bundles the read-only Google API services used to build the corpus
type GoogleClients struct {
	Sheets *sheets.Service
	Slides *slides.Service
	Drive  *drive.Service
}

// NewGoogleClients authenticates with a service-account key file, or with
// application default credentials when credentialsFile is empty.
func NewGoogleClients(ctx context.Context, credentialsFile string) (*GoogleClients, error) {
	var creds *google.Credentials
	if credentialsFile != "" {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read google credentials file: %w", err)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, googleScopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse google credentials: %w", err)
		}
	} else {
		var err error
		creds, err = google.FindDefaultCredentials(ctx, googleScopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to find default google credentials: %w", err)
		}
	}

	opt := option.WithTokenSource(creds.TokenSource)

	sheetsSvc, err := sheets.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	slidesSvc, err := slides.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create slides service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GoogleClients{Sheets: sheetsSvc, Slides: slidesSvc, Drive: driveSvc}, nil
}

// SheetValues reads a cell range from a spreadsheet
type SheetValues interface {
	GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error)
}

// Presentations fetches a Slides presentation
type Presentations interface {
	GetPresentation(ctx context.Context, presentationID string) (*slides.Presentation, error)
}

// DriveFile is a downloaded Drive file
type DriveFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// DriveFiles exports Google Workspace files and downloads regular Drive files
type DriveFiles interface {
	Export(ctx context.Context, fileID, mimeType string) ([]byte, error)
	Download(ctx context.Context, fileID string) (*DriveFile, error)
}

// SheetValues adapts the Sheets service
func (c *GoogleClients) SheetValues() SheetValues { return sheetsAdapter{c.Sheets} }

// Presentations adapts the Slides service
func (c *GoogleClients) Presentations() Presentations { return slidesAdapter{c.Slides} }

// DriveFiles adapts the Drive service
func (c *GoogleClients) DriveFiles() DriveFiles { return driveAdapter{c.Drive} }

type sheetsAdapter struct{ svc *sheets.Service }

func (a sheetsAdapter) GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, describeGoogleError("read sheet", spreadsheetID, err)
	}
	return resp.Values, nil
}

type slidesAdapter struct{ svc *slides.Service }

func (a slidesAdapter) GetPresentation(ctx context.Context, presentationID string) (*slides.Presentation, error) {
	p, err := a.svc.Presentations.Get(presentationID).Context(ctx).Do()
	if err != nil {
		return nil, describeGoogleError("get presentation", presentationID, err)
	}
	return p, nil
}

type driveAdapter struct{ svc *drive.Service }

func (a driveAdapter) Export(ctx context.Context, fileID, mimeType string) ([]byte, error) {
	resp, err := a.svc.Files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, describeGoogleError("export file", fileID, err)
	}
	defer resp.Body.Close()
	return readLimited(resp.Body)
}

func (a driveAdapter) Download(ctx context.Context, fileID string) (*DriveFile, error) {
	meta, err := a.svc.Files.Get(fileID).Fields("name", "mimeType", "size").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return nil, describeGoogleError("get file", fileID, err)
	}
	if meta.Size > MaxDriveFileSize {
		return nil, fmt.Errorf("file %s is %d bytes, limit is %d", fileID, meta.Size, MaxDriveFileSize)
	}

	resp, err := a.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, describeGoogleError("download file", fileID, err)
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, err
	}
	return &DriveFile{Name: meta.Name, MimeType: meta.MimeType, Data: data}, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDriveFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read drive content: %w", err)
	}
	if len(data) > MaxDriveFileSize {
		return nil, fmt.Errorf("drive content exceeds %d bytes", MaxDriveFileSize)
	}
	return data, nil
}
