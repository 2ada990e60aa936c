package rag

import (
	"fmt"

	"github.com/ternarybob/kotae/internal/services/knowledge"
)

// ErrNotInitialized is returned when answering is attempted before the corpus is built
var ErrNotInitialized = knowledge.ErrNotInitialized

// RetrievalError wraps an unexpected failure while searching the corpus
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("knowledge retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// GenerationError wraps a completion provider failure
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
