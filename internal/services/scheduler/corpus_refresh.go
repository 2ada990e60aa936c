package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/services/knowledge"
)

// CorpusRefreshJobName is the scheduler name of the periodic rebuild
const CorpusRefreshJobName = "corpus_refresh"

const defaultRefreshTimeout = 30 * time.Minute

// CorpusRefresh rebuilds the knowledge base and reports the outcome to the team channel
type CorpusRefresh struct {
	store    interfaces.KnowledgeStore
	lister   interfaces.ContentSourceLister
	notifier interfaces.Notifier // Optional
	timeout  time.Duration
	logger   arbor.ILogger
}

// NewCorpusRefresh creates the refresh job. notifier may be nil.
func NewCorpusRefresh(store interfaces.KnowledgeStore, lister interfaces.ContentSourceLister, notifier interfaces.Notifier, timeout time.Duration, logger arbor.ILogger) *CorpusRefresh {
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	return &CorpusRefresh{
		store:    store,
		lister:   lister,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run is the scheduler handler. A rebuild already in progress is not an error.
func (j *CorpusRefresh) Run() error {
	if j.store.IsRebuilding() {
		j.logger.Info().Msg("Knowledge base rebuild already running, skipping scheduled refresh")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.store.Rebuild(ctx, j.lister)
	if errors.Is(err, knowledge.ErrRebuildInProgress) {
		j.logger.Info().Msg("Knowledge base rebuild started elsewhere, skipping scheduled refresh")
		return nil
	}
	if err != nil {
		j.notify(ctx, fmt.Sprintf("Knowledge base refresh failed: %v", err))
		return err
	}

	j.notify(ctx, fmt.Sprintf("Knowledge base refreshed: %d/%d sources loaded (%d failed), %d images in %s",
		result.Loaded, result.Total, result.Failed, result.ImageCount, result.Duration().Round(time.Second)))
	return nil
}

func (j *CorpusRefresh) notify(ctx context.Context, text string) {
	if j.notifier == nil {
		return
	}
	// The rebuild context may already be exhausted
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := j.notifier.Notify(notifyCtx, text); err != nil {
		j.logger.Warn().Err(err).Msg("Failed to post refresh notification")
	}
}
