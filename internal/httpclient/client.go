package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBodySize caps downloads when the caller passes no limit
const DefaultMaxBodySize = 10 * 1024 * 1024

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// StatusError is returned when the server answers with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Download is the body of a successful GET
type Download struct {
	Body        []byte
	ContentType string
	FinalURL    string
}

// Get fetches url and reads at most maxSize bytes of the body.
// A body larger than maxSize is an error rather than a silent truncation.
func Get(ctx context.Context, client *http.Client, url, userAgent string, maxSize int64) (*Download, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	if int64(len(body)) > maxSize {
		return nil, fmt.Errorf("body of %s exceeds %d bytes", url, maxSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	return &Download{
		Body:        body,
		ContentType: contentType,
		FinalURL:    resp.Request.URL.String(),
	}, nil
}
