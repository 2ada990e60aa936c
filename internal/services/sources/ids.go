package sources

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	// /d/{id} in docs.google.com and drive.google.com links
	googlePathIDRegex = regexp.MustCompile(`/d/([a-zA-Z0-9_-]{10,})`)

	// 32 hex digits, optionally dashed as a UUID
	notionIDRegex = regexp.MustCompile(`([0-9a-fA-F]{8}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{12})`)
)

// GoogleFileID extracts the file id from a Google Docs, Slides or Drive url
func GoogleFileID(rawURL string) (string, bool) {
	if m := googlePathIDRegex.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if id := u.Query().Get("id"); id != "" {
		return id, true
	}
	return "", false
}

// NotionPageID extracts the page id from a notion.so url and returns it in dashed UUID form
func NotionPageID(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	// The id is the last 32 hex digits of the final path segment ("Title-<id>")
	matches := notionIDRegex.FindAllString(path.Base(u.Path), -1)
	if len(matches) == 0 {
		return "", false
	}
	id := strings.ReplaceAll(matches[len(matches)-1], "-", "")
	return strings.ToLower(id[0:8] + "-" + id[8:12] + "-" + id[12:16] + "-" + id[16:20] + "-" + id[20:32]), true
}

// hostOf returns the lower-cased host without a www. prefix
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
