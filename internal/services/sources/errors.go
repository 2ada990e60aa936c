package sources

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/ternarybob/kotae/internal/models"
)

var (
	// ErrUnsupportedSource is returned for sources no loader can handle
	ErrUnsupportedSource = errors.New("unsupported source")

	// ErrInvalidURL is returned when a document id cannot be read from a source url
	ErrInvalidURL = errors.New("cannot extract document id from url")
)

// unsupported wraps ErrUnsupportedSource with the kind and url
func unsupported(kind models.SourceKind, url string) error {
	return fmt.Errorf("%w: %s (%s)", ErrUnsupportedSource, url, kind)
}

func googleStatus(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsNotFound returns true if a Google API call failed because the file does not exist
func IsNotFound(err error) bool {
	return googleStatus(err) == http.StatusNotFound
}

// IsForbidden returns true if the service account lacks access to the file
func IsForbidden(err error) bool {
	code := googleStatus(err)
	return code == http.StatusForbidden || code == http.StatusUnauthorized
}

// IsRateLimited returns true if the Google API rejected the call for quota reasons
func IsRateLimited(err error) bool {
	return googleStatus(err) == http.StatusTooManyRequests
}

// describeGoogleError adds a hint for the common Google API failures
func describeGoogleError(op, id string, err error) error {
	switch {
	case IsNotFound(err):
		return fmt.Errorf("%s %s: file not found: %w", op, id, err)
	case IsForbidden(err):
		return fmt.Errorf("%s %s: file is not shared with the service account: %w", op, id, err)
	case IsRateLimited(err):
		return fmt.Errorf("%s %s: google api quota exceeded: %w", op, id, err)
	default:
		return fmt.Errorf("%s %s: %w", op, id, err)
	}
}
