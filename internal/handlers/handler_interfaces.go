package handlers

import (
	"context"

	"github.com/ternarybob/kotae/internal/models"
)

// BotRouter turns a verified webhook event into a reply
type BotRouter interface {
	Handle(ctx context.Context, event models.BotEvent) (*models.BotReply, error)
}

// CorpusStatusReporter reports knowledge base readiness for health checks
type CorpusStatusReporter interface {
	Status() models.CorpusStatus
}
