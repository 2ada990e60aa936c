package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/kotae/internal/models"
)

func TestSessions(t *testing.T) {
	sessions := NewSessions(time.Minute)

	_, ok := sessions.last("u1")
	assert.False(t, ok)

	sessions.remember("u1", lastQuery{Query: "返品", Mode: models.AnswerModeStrict, MaxResults: 10})
	sessions.remember("u2", lastQuery{Query: "配送"})

	q, ok := sessions.last("u1")
	assert.True(t, ok)
	assert.Equal(t, "返品", q.Query)
	assert.Equal(t, models.AnswerModeStrict, q.Mode)
	assert.Equal(t, 10, q.MaxResults)

	sessions.remember("u1", lastQuery{Query: "交換"})
	q, _ = sessions.last("u1")
	assert.Equal(t, "交換", q.Query)
}

func TestSessions_Expiry(t *testing.T) {
	sessions := NewSessions(20 * time.Millisecond)
	sessions.remember("u1", lastQuery{Query: "返品"})

	assert.Eventually(t, func() bool {
		_, ok := sessions.last("u1")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
