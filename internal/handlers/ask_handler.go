package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
	"github.com/ternarybob/kotae/internal/services/rag"
)

// AskImage is an image supplied with a question, by URL or inline base64 data
type AskImage struct {
	URL      string `json:"url" validate:"omitempty,url"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data" validate:"required_without=URL"`
}

// AskRequest is the body of POST /api/ask
type AskRequest struct {
	Query      string               `json:"query" validate:"required,max=4000"`
	Mode       string               `json:"mode" validate:"omitempty,oneof=lenient strict"`
	MaxResults int                  `json:"max_results" validate:"gte=0,lte=50"`
	Filters    models.SearchFilters `json:"filters"`
	Images     []AskImage           `json:"images" validate:"max=4,dive"`
	DisableRAG bool                 `json:"disable_rag"`
}

// AskHandler answers questions over HTTP
type AskHandler struct {
	answers interfaces.AnswerService
	logger  arbor.ILogger
}

func NewAskHandler(answers interfaces.AnswerService, logger arbor.ILogger) *AskHandler {
	return &AskHandler{
		answers: answers,
		logger:  logger,
	}
}

// AskHandler handles POST /api/ask
func (h *AskHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req AskRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := models.AnswerOptions{
		Mode:       models.ParseAnswerMode(req.Mode),
		MaxResults: req.MaxResults,
		Filters:    req.Filters,
		DisableRAG: req.DisableRAG,
	}
	for i, img := range req.Images {
		opts.UserImages = append(opts.UserImages, models.ImageDescriptor{
			Source:   "user",
			Position: fmt.Sprintf("attachment %d", i+1),
			Kind:     models.ImageKindUser,
			URL:      img.URL,
			MimeType: img.MimeType,
			Data:     img.Data,
		})
	}

	answer, err := h.answers.Answer(r.Context(), req.Query, opts)
	if err != nil {
		status := answerErrorStatus(err)
		h.logger.Error().Err(err).Str("query", req.Query).Int("status", status).Msg("Ask request failed")
		WriteError(w, status, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, answer)
}

func answerErrorStatus(err error) int {
	var retrievalErr *rag.RetrievalError
	var generationErr *rag.GenerationError
	switch {
	case errors.Is(err, rag.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.As(err, &generationErr):
		return http.StatusBadGateway
	case errors.As(err, &retrievalErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
