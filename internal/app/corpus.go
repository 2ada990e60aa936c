package app

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/common"
	"github.com/ternarybob/kotae/internal/httpclient"
	"github.com/ternarybob/kotae/internal/models"
	"github.com/ternarybob/kotae/internal/services/knowledge"
	"github.com/ternarybob/kotae/internal/services/llm"
	"github.com/ternarybob/kotae/internal/services/sources"
)

// Corpus groups everything needed to build and search the knowledge base.
// Shared by the HTTP server and the MCP binary.
type Corpus struct {
	GoogleClients *sources.GoogleClients // nil when Google credentials are unavailable
	LLMService    *llm.ProviderFactory
	Lister        *sources.SheetLister
	Loader        *sources.Loader
	Store         *knowledge.Store
	Search        *knowledge.SearchService
}

// NewCorpus wires the source lister, the per-kind loaders and the knowledge store.
// Missing Google or Notion credentials disable those source kinds instead of failing.
func NewCorpus(ctx context.Context, cfg *common.Config, logger arbor.ILogger) *Corpus {
	c := &Corpus{
		LLMService: llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, logger),
	}

	gctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	googleClients, err := sources.NewGoogleClients(gctx, cfg.Google.CredentialsFile)
	if err != nil {
		// Websites and Notion pages still load without Google access
		logger.Warn().Err(err).Msg("Google APIs unavailable, sheet listing and Drive sources disabled")
	} else {
		c.GoogleClients = googleClients
	}

	httpClient := httpclient.NewDefaultHTTPClient(cfg.Crawler.RequestTimeout)

	loader := sources.NewLoader(logger)
	var driveFiles sources.DriveFiles
	var sheetValues sources.SheetValues
	if c.GoogleClients != nil {
		driveFiles = c.GoogleClients.DriveFiles()
		sheetValues = c.GoogleClients.SheetValues()
		loader.
			Register(models.SourceKindSlides, sources.NewSlidesLoader(c.GoogleClients.Presentations(), httpClient, logger)).
			Register(models.SourceKindDocs, sources.NewDocsLoader(driveFiles)).
			Register(models.SourceKindTextFile, sources.NewTextFileLoader(driveFiles))
	}
	loader.
		Register(models.SourceKindImage, sources.NewImageLoader(driveFiles, httpClient, c.LLMService, logger)).
		Register(models.SourceKindWebsite, sources.NewWebsiteLoader(cfg.Crawler, logger))

	if token, err := common.ResolveAPIKey("notion_token", cfg.Notion.Token); err == nil {
		loader.Register(models.SourceKindNotion, sources.NewNotionLoader(sources.NewNotionClient(token)))
	} else {
		logger.Debug().Msg("Notion token not configured, Notion sources disabled")
	}
	c.Loader = loader

	c.Lister = sources.NewSheetLister(sheetValues, cfg.Corpus.SheetID, cfg.Corpus.SheetRange, logger)

	c.Store = knowledge.NewStore(loader, logger,
		knowledge.WithFetchDelay(cfg.Corpus.FetchDelay),
		knowledge.WithWorkers(cfg.Corpus.Workers),
	)
	c.Search = knowledge.NewSearchService(
		c.Store,
		knowledge.NewScorer(cfg.Knowledge.ExcerptLength, cfg.Knowledge.ExcerptLeadIn),
		logger,
	)
	return c
}
