package sources

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
)

// Loader dispatches each source to the loader registered for its kind
type Loader struct {
	loaders map[models.SourceKind]interfaces.ContentLoader
	logger  arbor.ILogger
}

// NewLoader creates an empty dispatcher; register variants with Register
func NewLoader(logger arbor.ILogger) *Loader {
	return &Loader{
		loaders: make(map[models.SourceKind]interfaces.ContentLoader),
		logger:  logger,
	}
}

// Register sets the loader for a kind. A nil loader leaves the kind unsupported.
func (l *Loader) Register(kind models.SourceKind, loader interfaces.ContentLoader) *Loader {
	if loader != nil {
		l.loaders[kind] = loader
	}
	return l
}

// Supports reports whether a loader is registered for kind
func (l *Loader) Supports(kind models.SourceKind) bool {
	_, ok := l.loaders[kind]
	return ok
}

// Load implements interfaces.ContentLoader
func (l *Loader) Load(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
	kind := KindOf(src)
	loader, ok := l.loaders[kind]
	if !ok {
		return nil, unsupported(kind, src.URL)
	}

	l.logger.Debug().Str("kind", kind.String()).Str("url", src.URL).Msg("Loading source")
	return loader.Load(ctx, src)
}
