package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/common"
	"github.com/ternarybob/kotae/internal/handlers"
	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/services/bot"
	"github.com/ternarybob/kotae/internal/services/knowledge"
	"github.com/ternarybob/kotae/internal/services/llm"
	"github.com/ternarybob/kotae/internal/services/notify"
	"github.com/ternarybob/kotae/internal/services/rag"
	"github.com/ternarybob/kotae/internal/services/scheduler"
	"github.com/ternarybob/kotae/internal/services/sources"
	badgerstore "github.com/ternarybob/kotae/internal/storage/badger"
)

const auditMaintenanceJobName = "audit_maintenance"

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	// Corpus
	GoogleClients  *sources.GoogleClients
	SourceLister   interfaces.ContentSourceLister
	ContentLoader  *sources.Loader
	KnowledgeStore *knowledge.Store
	SearchService  *knowledge.SearchService

	// Answering
	LLMService    *llm.ProviderFactory
	AnswerService *rag.Service
	BotRouter     *bot.Router

	// Operations
	AuditStorage     *badgerstore.AuditStorage
	Notifier         interfaces.Notifier
	SchedulerService interfaces.SchedulerService
	CorpusRefresh    *scheduler.CorpusRefresh

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	AskHandler       *handlers.AskHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	WebhookHandler   *handlers.WebhookHandler
	AuditHandler     *handlers.AuditHandler
	SchedulerHandler *handlers.SchedulerHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initCorpus(); err != nil {
		return nil, fmt.Errorf("failed to initialize corpus: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	if err := app.SchedulerService.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Without a schedule the refresh job is not registered, so startup builds run directly
	if cfg.Corpus.RebuildSchedule == "" && cfg.Corpus.RebuildOnStartup {
		common.SafeGoWithContext(app.ctx, logger, "corpus-startup-build", func() {
			if err := app.CorpusRefresh.Run(); err != nil {
				logger.Warn().Err(err).Msg("Startup corpus build failed")
			}
		})
	}

	logger.Info().
		Bool("google", app.GoogleClients != nil).
		Bool("notion", cfg.Notion.Token != "").
		Bool("javascript", cfg.Crawler.EnableJavaScript).
		Bool("audit", app.AuditStorage != nil).
		Bool("notify", app.Notifier != nil).
		Str("rebuild_schedule", cfg.Corpus.RebuildSchedule).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens the audit store. The bot works without it.
func (a *App) initDatabase() error {
	audit, err := badgerstore.OpenAuditStorage(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		a.Logger.Warn().Err(err).Str("path", a.Config.Storage.Badger.Path).Msg("Audit storage unavailable, answers will not be recorded")
		return nil
	}
	a.AuditStorage = audit
	return nil
}

// initCorpus builds the shared corpus components
func (a *App) initCorpus() error {
	corpus := NewCorpus(a.ctx, a.Config, a.Logger)

	a.LLMService = corpus.LLMService
	a.GoogleClients = corpus.GoogleClients
	a.SourceLister = corpus.Lister
	a.ContentLoader = corpus.Loader
	a.KnowledgeStore = corpus.Store
	a.SearchService = corpus.Search
	return nil
}

// initServices wires answering, the bot and scheduled maintenance
func (a *App) initServices() error {
	cfg := a.Config

	a.AnswerService = rag.NewService(a.KnowledgeStore, a.SearchService, a.LLMService, rag.ConfigFromKnowledge(cfg.Knowledge), a.Logger)

	menu, err := bot.LoadMenu(cfg.Bot.MenuFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		a.Logger.Warn().Str("path", cfg.Bot.MenuFile).Msg("Menu file not found, canned replies disabled")
	}

	var audit interfaces.AuditStorage
	if a.AuditStorage != nil {
		audit = a.AuditStorage
	}
	a.BotRouter = bot.NewRouter(a.AnswerService, menu, audit, cfg.Bot, a.Logger)

	if slack := notify.NewSlackNotifier(cfg.Notify.SlackWebhookURL, a.Logger); slack != nil {
		a.Notifier = slack
	}

	a.CorpusRefresh = scheduler.NewCorpusRefresh(a.KnowledgeStore, a.SourceLister, a.Notifier, 0, a.Logger)
	a.SchedulerService = scheduler.NewService(a.Logger)
	if cfg.Corpus.RebuildSchedule != "" {
		if err := a.SchedulerService.RegisterJob(
			scheduler.CorpusRefreshJobName,
			cfg.Corpus.RebuildSchedule,
			"Rebuild the knowledge base from the source sheet",
			cfg.Corpus.RebuildOnStartup,
			a.CorpusRefresh.Run,
		); err != nil {
			return fmt.Errorf("failed to register corpus refresh job: %w", err)
		}
	}
	if a.AuditStorage != nil && cfg.Storage.Badger.MaintenanceSchedule != "" {
		retention := time.Duration(cfg.Storage.Badger.RetentionDays) * 24 * time.Hour
		if err := a.SchedulerService.RegisterJob(
			auditMaintenanceJobName,
			cfg.Storage.Badger.MaintenanceSchedule,
			"Prune old answer records and reclaim audit disk space",
			false,
			func() error { return a.AuditStorage.Maintain(a.ctx, retention) },
		); err != nil {
			return fmt.Errorf("failed to register audit maintenance job: %w", err)
		}
	}
	return nil
}

func (a *App) initHandlers() error {
	cfg := a.Config
	lenient := rag.ConfigFromKnowledge(cfg.Knowledge).Lenient

	a.APIHandler = handlers.NewAPIHandler(a.KnowledgeStore, a.Logger)
	a.AskHandler = handlers.NewAskHandler(a.AnswerService, a.Logger)
	a.KnowledgeHandler = handlers.NewKnowledgeHandler(a.KnowledgeStore, a.SearchService, a.SourceLister, lenient, a.Logger)
	a.WebhookHandler = handlers.NewWebhookHandler(a.BotRouter, cfg.Webhook.Secret, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService, a.Logger)
	if a.AuditStorage != nil {
		a.AuditHandler = handlers.NewAuditHandler(a.AuditStorage, a.Logger)
	}
	return nil
}

// Close stops background work and releases resources
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.AuditStorage != nil {
		if err := a.AuditStorage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close audit storage")
		} else {
			a.Logger.Info().Msg("Audit storage closed")
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
