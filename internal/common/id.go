package common

import (
	"github.com/google/uuid"
)

// NewAnswerID generates a unique audit record ID with the "ans_" prefix
func NewAnswerID() string {
	return "ans_" + uuid.New().String()
}

// NewRequestID generates a short correlation ID for log lines of one request
func NewRequestID() string {
	return uuid.New().String()[:8]
}
