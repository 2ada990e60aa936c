package interfaces

import (
	"context"

	"github.com/ternarybob/kotae/internal/models"
)

// AnswerService turns a question into a grounded answer
type AnswerService interface {
	Answer(ctx context.Context, query string, opts models.AnswerOptions) (*models.Answer, error)
}

// AuditStorage persists answer records
type AuditStorage interface {
	SaveAnswer(ctx context.Context, record *models.AnswerRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.AnswerRecord, error)
	Close() error
}

// Notifier posts operational messages to a team channel
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
