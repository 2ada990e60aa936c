package knowledge

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when the corpus has never been built
	ErrNotInitialized = errors.New("knowledge base is not initialized")

	// ErrRebuildInProgress is returned when a rebuild is requested while one is running
	ErrRebuildInProgress = errors.New("knowledge base rebuild already in progress")

	// ErrNoSources is returned when the source list is empty; the corpus is left untouched
	ErrNoSources = errors.New("no content sources found")
)

// LoadError records a single source that failed during a rebuild.
// It is kept as a placeholder document and never fails the rebuild.
type LoadError struct {
	Source string
	URL    string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s (%s): %v", e.Source, e.URL, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
