package models

import "strings"

// DocumentTypeError marks a placeholder document recorded for a source that failed to load
const DocumentTypeError = "error"

// ImageKind describes where an image came from
type ImageKind string

const (
	ImageKindEmbedded   ImageKind = "embedded"   // Image found inside a slide, doc, page or website
	ImageKindStandalone ImageKind = "standalone" // Source row that is itself an image file
	ImageKindUser       ImageKind = "user"       // Attachment supplied by the person asking
)

// ImageDescriptor describes one image attached to a document or a query
type ImageDescriptor struct {
	Source      string    `json:"source"`                // Display name of the owning document
	FileName    string    `json:"file_name"`             // File name or last URL segment
	Position    string    `json:"position"`              // Where the image sits in its source, e.g. "slide 3"
	Description string    `json:"description,omitempty"` // Caption, alt text or generated description
	Kind        ImageKind `json:"kind"`
	URL         string    `json:"url,omitempty"`
	MimeType    string    `json:"mime_type,omitempty"`
	Data        []byte    `json:"-"` // Inline bytes when already downloaded
}

// Document is one indexed source of the knowledge corpus.
// Documents are immutable once a build has been published.
type Document struct {
	Source         string            `json:"source"`
	URL            string            `json:"url"`
	Content        string            `json:"content"`
	Images         []ImageDescriptor `json:"images,omitempty"`
	Classification string            `json:"classification,omitempty"`
	Category       string            `json:"category,omitempty"`
	GoodBadExample string            `json:"good_bad_example,omitempty"`
	Remarks        string            `json:"remarks,omitempty"` // Comma separated exact-match keywords
	Type           string            `json:"type,omitempty"`
}

// IsError reports whether the document is a load-failure placeholder
func (d *Document) IsError() bool {
	return d.Type == DocumentTypeError
}

// HasRemarks reports whether the document carries a non-blank remarks field
func (d *Document) HasRemarks() bool {
	return strings.TrimSpace(d.Remarks) != ""
}
