package bot

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ternarybob/kotae/internal/models"
)

// lastQuery is what the retry and more buttons replay
type lastQuery struct {
	Query      string
	Mode       models.AnswerMode
	MaxResults int
	Images     []models.ImageDescriptor
}

// Sessions remembers each user's most recent question for a limited time
type Sessions struct {
	cache *cache.Cache
}

// NewSessions creates a session cache; entries expire after ttl
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Sessions{cache: cache.New(ttl, 2*ttl)}
}

func (s *Sessions) remember(userID string, q lastQuery) {
	s.cache.Set(userID, q, cache.DefaultExpiration)
}

func (s *Sessions) last(userID string) (lastQuery, bool) {
	if x, found := s.cache.Get(userID); found {
		return x.(lastQuery), true
	}
	return lastQuery{}, false
}
