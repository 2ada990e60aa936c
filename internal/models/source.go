package models

// SourceDescriptor is one row of the content source list
type SourceDescriptor struct {
	URL            string `json:"url"`
	FileName       string `json:"file_name"`
	Classification string `json:"classification"`
	Type           string `json:"type"`
	Category       string `json:"category"`
	GoodBadExample string `json:"good_bad_example"`
	Remarks        string `json:"remarks"`
}

// DisplayName returns the file name, falling back to the url
func (s SourceDescriptor) DisplayName() string {
	if s.FileName != "" {
		return s.FileName
	}
	return s.URL
}

// SourceKind selects the loading strategy for a source
type SourceKind int

const (
	SourceKindUnknown SourceKind = iota
	SourceKindSlides
	SourceKindDocs
	SourceKindNotion
	SourceKindTextFile
	SourceKindImage
	SourceKindWebsite
)

func (k SourceKind) String() string {
	switch k {
	case SourceKindSlides:
		return "slides"
	case SourceKindDocs:
		return "docs"
	case SourceKindNotion:
		return "notion"
	case SourceKindTextFile:
		return "textfile"
	case SourceKindImage:
		return "image"
	case SourceKindWebsite:
		return "website"
	default:
		return "unknown"
	}
}

// LoadedContent is what a loader returns for one source
type LoadedContent struct {
	Content string
	Images  []ImageDescriptor
}
