package knowledge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
)

// DefaultFetchDelay is the pause between consecutive source fetches during a rebuild
const DefaultFetchDelay = 200 * time.Millisecond

// snapshot is one published build. It is never modified after being stored.
type snapshot struct {
	documents  []models.Document
	images     []models.ImageDescriptor
	errorCount int
	builtAt    time.Time
}

// Store holds the in-memory corpus. Readers load the current snapshot with a
// single atomic read, so a concurrent rebuild is observed either fully or not at all.
type Store struct {
	loader     interfaces.ContentLoader
	logger     arbor.ILogger
	fetchDelay time.Duration
	workers    int

	current    atomic.Pointer[snapshot]
	rebuilding atomic.Bool

	mu          sync.Mutex
	lastAttempt time.Time
	lastError   string
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithFetchDelay sets the pacing delay between source fetches; zero disables pacing
func WithFetchDelay(d time.Duration) StoreOption {
	return func(s *Store) {
		s.fetchDelay = d
	}
}

// WithWorkers sets how many sources are fetched concurrently; the pacing delay still applies between fetch starts
func WithWorkers(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewStore creates an empty, uninitialized store
func NewStore(loader interfaces.ContentLoader, logger arbor.ILogger, opts ...StoreOption) *Store {
	s := &Store{
		loader:     loader,
		logger:     logger,
		fetchDelay: DefaultFetchDelay,
		workers:    1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rebuild lists the sources, loads each one and publishes the new corpus.
// A failing source becomes a placeholder document of type "error".
// If listing fails or ctx is cancelled the previous corpus stays in place.
func (s *Store) Rebuild(ctx context.Context, lister interfaces.ContentSourceLister) (*models.BuildResult, error) {
	if !s.rebuilding.CompareAndSwap(false, true) {
		return nil, ErrRebuildInProgress
	}
	defer s.rebuilding.Store(false)

	result := &models.BuildResult{StartedAt: time.Now()}
	s.mu.Lock()
	s.lastAttempt = result.StartedAt
	s.mu.Unlock()

	sources, err := lister.ListSources(ctx)
	if err != nil {
		s.recordError(err)
		s.logger.Error().Err(err).Msg("Failed to list content sources, keeping current corpus")
		return nil, fmt.Errorf("failed to list content sources: %w", err)
	}
	if len(sources) == 0 {
		s.logger.Warn().Msg("Content source list is empty, corpus not rebuilt")
		return nil, ErrNoSources
	}

	s.logger.Info().Int("sources", len(sources)).Int("workers", s.workers).Dur("fetch_delay", s.fetchDelay).Msg("Rebuilding knowledge base")

	documents, failed, err := s.loadAll(ctx, sources)
	if err != nil {
		s.recordError(err)
		s.logger.Warn().Err(err).Msg("Rebuild cancelled, keeping current corpus")
		return nil, err
	}

	var images []models.ImageDescriptor
	for i := range documents {
		images = append(images, documents[i].Images...)
	}

	result.CompletedAt = time.Now()
	s.current.Store(&snapshot{
		documents:  documents,
		images:     images,
		errorCount: failed,
		builtAt:    result.CompletedAt,
	})
	s.recordError(nil)

	result.Documents = documents
	result.Images = images
	result.Total = len(sources)
	result.Loaded = len(sources) - failed
	result.Failed = failed
	result.ImageCount = len(images)

	s.logger.Info().
		Int("documents", result.Loaded).
		Int("failed", failed).
		Int("images", len(images)).
		Dur("duration", result.Duration()).
		Msg("Knowledge base rebuilt")

	return result, nil
}

// pause waits fetchDelay and reports false when ctx ends first
func (s *Store) pause(ctx context.Context) bool {
	if s.fetchDelay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(s.fetchDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// loadAll fetches every source, keeping document order equal to source order
func (s *Store) loadAll(ctx context.Context, sources []models.SourceDescriptor) ([]models.Document, int, error) {
	// The limiter spaces fetch starts across workers; pause adds the gap after each fetch
	var limiter *rate.Limiter
	if s.fetchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.fetchDelay), 1)
	}

	documents := make([]models.Document, len(sources))
	var failed atomic.Int32

	indexes := make(chan int)
	var wg sync.WaitGroup
	for range min(s.workers, len(sources)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paused := false
			for i := range indexes {
				// Each worker rests fetchDelay between finishing one source and starting the next
				if paused && !s.pause(ctx) {
					continue
				}
				paused = true
				doc, ok := s.loadOne(ctx, i, sources[i])
				if !ok {
					failed.Add(1)
				}
				documents[i] = doc
			}
		}()
	}

	var waitErr error
	for i := range sources {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				waitErr = err
				break
			}
		}
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	if waitErr != nil {
		return nil, 0, fmt.Errorf("rebuild interrupted: %w", waitErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("rebuild interrupted: %w", err)
	}
	return documents, int(failed.Load()), nil
}

func (s *Store) loadOne(ctx context.Context, index int, src models.SourceDescriptor) (models.Document, bool) {
	doc := models.Document{
		Source:         src.DisplayName(),
		URL:            src.URL,
		Classification: src.Classification,
		Category:       src.Category,
		GoodBadExample: src.GoodBadExample,
		Remarks:        src.Remarks,
		Type:           src.Type,
	}

	loaded, err := s.loader.Load(ctx, src)
	if err != nil {
		loadErr := &LoadError{Source: doc.Source, URL: src.URL, Err: err}
		s.logger.Warn().Err(err).Int("index", index).Str("source", doc.Source).Str("url", src.URL).Msg("Failed to load source, recording placeholder")
		doc.Content = loadErr.Error()
		doc.Type = models.DocumentTypeError
		return doc, false
	}

	if loaded == nil {
		loaded = &models.LoadedContent{}
	}
	doc.Content = loaded.Content
	doc.Images = make([]models.ImageDescriptor, len(loaded.Images))
	for i, img := range loaded.Images {
		if img.Source == "" {
			img.Source = doc.Source
		}
		doc.Images[i] = img
	}

	s.logger.Debug().Int("index", index).Str("source", doc.Source).Int("chars", len([]rune(doc.Content))).Int("images", len(doc.Images)).Msg("Loaded source")
	return doc, true
}

func (s *Store) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}

// Documents returns the current documents. Callers must not modify the slice.
func (s *Store) Documents() []models.Document {
	if snap := s.current.Load(); snap != nil {
		return snap.documents
	}
	return nil
}

// Images returns all images of the current documents. Callers must not modify the slice.
func (s *Store) Images() []models.ImageDescriptor {
	if snap := s.current.Load(); snap != nil {
		return snap.images
	}
	return nil
}

// IsInitialized reports whether a corpus has been published
func (s *Store) IsInitialized() bool {
	return s.current.Load() != nil
}

// IsRebuilding reports whether a rebuild is running
func (s *Store) IsRebuilding() bool {
	return s.rebuilding.Load()
}

// Status returns a point-in-time view of the store
func (s *Store) Status() models.CorpusStatus {
	s.mu.Lock()
	status := models.CorpusStatus{
		LastBuildTime: s.lastAttempt,
		LastError:     s.lastError,
		Rebuilding:    s.rebuilding.Load(),
	}
	s.mu.Unlock()

	if snap := s.current.Load(); snap != nil {
		status.Initialized = true
		status.DocumentCount = len(snap.documents)
		status.ImageCount = len(snap.images)
		status.ErrorCount = snap.errorCount
	}
	return status
}
