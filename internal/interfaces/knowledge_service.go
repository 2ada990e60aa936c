package interfaces

import (
	"context"

	"github.com/ternarybob/kotae/internal/models"
)

// ContentSourceLister supplies the rebuild input list
type ContentSourceLister interface {
	ListSources(ctx context.Context) ([]models.SourceDescriptor, error)
}

// ContentLoader fetches and normalizes a single source.
// Failures are independent per call.
type ContentLoader interface {
	Load(ctx context.Context, source models.SourceDescriptor) (*models.LoadedContent, error)
}

// CorpusReader is the read-only view of the corpus used by search and answering
type CorpusReader interface {
	// Documents returns a read-only snapshot of the current documents
	Documents() []models.Document

	// Images returns a read-only snapshot of all document images
	Images() []models.ImageDescriptor

	IsInitialized() bool
}

// KnowledgeStore owns the in-memory corpus
type KnowledgeStore interface {
	CorpusReader

	// Rebuild loads every listed source and atomically replaces the corpus.
	// Returns knowledge.ErrRebuildInProgress when another rebuild is running.
	Rebuild(ctx context.Context, lister ContentSourceLister) (*models.BuildResult, error)

	Status() models.CorpusStatus
	IsRebuilding() bool
}

// KnowledgeSearch ranks documents for a query
type KnowledgeSearch interface {
	// Search never fails; internal errors are logged and yield no results
	Search(query string, opts models.SearchOptions) []models.SearchResult
}
