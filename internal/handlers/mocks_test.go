package handlers

import (
	"context"

	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
)

// mockAnswerService implements interfaces.AnswerService for testing
type mockAnswerService struct {
	answerFunc func(ctx context.Context, query string, opts models.AnswerOptions) (*models.Answer, error)
}

func (m *mockAnswerService) Answer(ctx context.Context, query string, opts models.AnswerOptions) (*models.Answer, error) {
	if m.answerFunc != nil {
		return m.answerFunc(ctx, query, opts)
	}
	return &models.Answer{}, nil
}

// mockKnowledgeStore implements interfaces.KnowledgeStore for testing
type mockKnowledgeStore struct {
	rebuildFunc  func(ctx context.Context, lister interfaces.ContentSourceLister) (*models.BuildResult, error)
	status       models.CorpusStatus
	rebuilding   bool
	rebuildCalls chan struct{}
}

func (m *mockKnowledgeStore) Documents() []models.Document     { return nil }
func (m *mockKnowledgeStore) Images() []models.ImageDescriptor { return nil }
func (m *mockKnowledgeStore) IsInitialized() bool              { return m.status.Initialized }
func (m *mockKnowledgeStore) Status() models.CorpusStatus      { return m.status }
func (m *mockKnowledgeStore) IsRebuilding() bool               { return m.rebuilding }

func (m *mockKnowledgeStore) Rebuild(ctx context.Context, lister interfaces.ContentSourceLister) (*models.BuildResult, error) {
	if m.rebuildCalls != nil {
		defer func() { m.rebuildCalls <- struct{}{} }()
	}
	if m.rebuildFunc != nil {
		return m.rebuildFunc(ctx, lister)
	}
	return &models.BuildResult{}, nil
}

// mockKnowledgeSearch implements interfaces.KnowledgeSearch for testing
type mockKnowledgeSearch struct {
	searchFunc func(query string, opts models.SearchOptions) []models.SearchResult
}

func (m *mockKnowledgeSearch) Search(query string, opts models.SearchOptions) []models.SearchResult {
	if m.searchFunc != nil {
		return m.searchFunc(query, opts)
	}
	return nil
}

// mockBotRouter implements BotRouter for testing
type mockBotRouter struct {
	handleFunc func(ctx context.Context, event models.BotEvent) (*models.BotReply, error)
}

func (m *mockBotRouter) Handle(ctx context.Context, event models.BotEvent) (*models.BotReply, error) {
	if m.handleFunc != nil {
		return m.handleFunc(ctx, event)
	}
	return &models.BotReply{}, nil
}

// mockAuditStorage implements interfaces.AuditStorage for testing
type mockAuditStorage struct {
	listRecentFunc func(ctx context.Context, limit int) ([]models.AnswerRecord, error)
}

func (m *mockAuditStorage) SaveAnswer(ctx context.Context, record *models.AnswerRecord) error {
	return nil
}

func (m *mockAuditStorage) ListRecent(ctx context.Context, limit int) ([]models.AnswerRecord, error) {
	if m.listRecentFunc != nil {
		return m.listRecentFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockAuditStorage) Close() error { return nil }

// mockSchedulerService implements interfaces.SchedulerService for testing
type mockSchedulerService struct {
	jobs      map[string]*interfaces.JobStatus
	triggered []string
	triggerFn func(name string) error
}

func (m *mockSchedulerService) Start() error    { return nil }
func (m *mockSchedulerService) Stop() error     { return nil }
func (m *mockSchedulerService) IsRunning() bool { return true }

func (m *mockSchedulerService) RegisterJob(name, schedule, description string, autoStart bool, handler func() error) error {
	return nil
}

func (m *mockSchedulerService) EnableJob(name string) error {
	m.jobs[name].Enabled = true
	return nil
}

func (m *mockSchedulerService) DisableJob(name string) error {
	m.jobs[name].Enabled = false
	return nil
}

func (m *mockSchedulerService) TriggerJob(name string) error {
	m.triggered = append(m.triggered, name)
	if m.triggerFn != nil {
		return m.triggerFn(name)
	}
	return nil
}

func (m *mockSchedulerService) GetJobStatus(name string) (*interfaces.JobStatus, error) {
	if job, ok := m.jobs[name]; ok {
		return job, nil
	}
	return nil, errJobNotFound(name)
}

func (m *mockSchedulerService) GetAllJobStatuses() map[string]*interfaces.JobStatus {
	return m.jobs
}

type errJobNotFound string

func (e errJobNotFound) Error() string { return "job " + string(e) + " not found" }
