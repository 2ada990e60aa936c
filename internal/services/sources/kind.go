package sources

import (
	"path"
	"strings"

	"github.com/ternarybob/kotae/internal/models"
)

// typeAliases maps the type column of the source list to a loader kind
var typeAliases = map[string]models.SourceKind{
	"slides":       models.SourceKindSlides,
	"slide":        models.SourceKindSlides,
	"presentation": models.SourceKindSlides,
	"スライド":         models.SourceKindSlides,
	"docs":         models.SourceKindDocs,
	"doc":          models.SourceKindDocs,
	"document":     models.SourceKindDocs,
	"ドキュメント":       models.SourceKindDocs,
	"notion":       models.SourceKindNotion,
	"text":         models.SourceKindTextFile,
	"txt":          models.SourceKindTextFile,
	"markdown":     models.SourceKindTextFile,
	"md":           models.SourceKindTextFile,
	"テキスト":         models.SourceKindTextFile,
	"image":        models.SourceKindImage,
	"画像":           models.SourceKindImage,
	"website":      models.SourceKindWebsite,
	"web":          models.SourceKindWebsite,
	"html":         models.SourceKindWebsite,
	"サイト":          models.SourceKindWebsite,
	"ウェブサイト":       models.SourceKindWebsite,
}

var textExtensions = map[string]bool{".txt": true, ".md": true, ".markdown": true, ".csv": true}

var imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

// KindOf picks the loader for a source: the type column wins, then the url shape
func KindOf(src models.SourceDescriptor) models.SourceKind {
	if kind, ok := typeAliases[strings.ToLower(strings.TrimSpace(src.Type))]; ok {
		return kind
	}

	rawURL := strings.TrimSpace(src.URL)
	lowerURL := strings.ToLower(rawURL)
	if !strings.HasPrefix(lowerURL, "http://") && !strings.HasPrefix(lowerURL, "https://") {
		return models.SourceKindUnknown
	}

	host := hostOf(rawURL)
	switch {
	case host == "docs.google.com" && strings.Contains(lowerURL, "/presentation/"):
		return models.SourceKindSlides
	case host == "docs.google.com" && strings.Contains(lowerURL, "/document/"):
		return models.SourceKindDocs
	case host == "notion.so" || strings.HasSuffix(host, ".notion.so") || strings.HasSuffix(host, ".notion.site"):
		return models.SourceKindNotion
	case host == "drive.google.com":
		return driveFileKind(src.FileName)
	case host == "docs.google.com":
		// Spreadsheets and forms have no loader
		return models.SourceKindUnknown
	}

	if ext := strings.ToLower(path.Ext(strings.SplitN(lowerURL, "?", 2)[0])); imageExtensions[ext] {
		return models.SourceKindImage
	}
	return models.SourceKindWebsite
}

// driveFileKind decides by file name extension, Drive urls carry none
func driveFileKind(fileName string) models.SourceKind {
	ext := strings.ToLower(path.Ext(fileName))
	switch {
	case textExtensions[ext]:
		return models.SourceKindTextFile
	case imageExtensions[ext]:
		return models.SourceKindImage
	default:
		return models.SourceKindUnknown
	}
}
