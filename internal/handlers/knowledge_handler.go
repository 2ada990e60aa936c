package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/common"
	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
	"github.com/ternarybob/kotae/internal/services/knowledge"
)

const rebuildTimeout = 30 * time.Minute

// KnowledgeHandler exposes search, rebuild and status of the knowledge base
type KnowledgeHandler struct {
	store    interfaces.KnowledgeStore
	search   interfaces.KnowledgeSearch
	lister   interfaces.ContentSourceLister
	defaults models.SearchOptions
	logger   arbor.ILogger
}

// NewKnowledgeHandler creates the handler. defaults apply when the request omits a parameter.
func NewKnowledgeHandler(
	store interfaces.KnowledgeStore,
	search interfaces.KnowledgeSearch,
	lister interfaces.ContentSourceLister,
	defaults models.SearchOptions,
	logger arbor.ILogger,
) *KnowledgeHandler {
	return &KnowledgeHandler{
		store:    store,
		search:   search,
		lister:   lister,
		defaults: defaults,
		logger:   logger,
	}
}

// searchResultResponse is one ranked document with its rendered match details
type searchResultResponse struct {
	Score        float64               `json:"score"`
	Answer       string                `json:"answer"`
	Metadata     models.ResultMetadata `json:"metadata"`
	MatchDetails []string              `json:"match_details"`
}

// SearchHandler handles GET /api/knowledge/search
func (h *KnowledgeHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	opts := models.SearchOptions{
		MaxResults: QueryInt(r, "max_results", h.defaults.MaxResults),
		MinScore:   QueryFloat(r, "min_score", h.defaults.MinScore),
		TopK:       QueryInt(r, "top_k", h.defaults.TopK),
		Filters: models.SearchFilters{
			Classification: r.URL.Query().Get("classification"),
			Category:       r.URL.Query().Get("category"),
			GoodBadExample: r.URL.Query().Get("good_bad_example"),
		},
	}
	if opts.MaxResults < 0 || opts.TopK < 0 || opts.MinScore < 0 {
		WriteError(w, http.StatusBadRequest, "max_results, top_k and min_score must not be negative")
		return
	}

	results := h.search.Search(query, opts)

	response := make([]searchResultResponse, 0, len(results))
	for _, result := range results {
		details := make([]string, 0, len(result.MatchDetails))
		for _, d := range result.MatchDetails {
			details = append(details, d.String())
		}
		response = append(response, searchResultResponse{
			Score:        result.Score,
			Answer:       result.Answer,
			Metadata:     result.Metadata,
			MatchDetails: details,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":       query,
		"initialized": h.store.IsInitialized(),
		"count":       len(response),
		"results":     response,
	})
}

// RebuildHandler handles POST /api/knowledge/rebuild.
// The rebuild runs in the background unless ?wait=true is given.
func (h *KnowledgeHandler) RebuildHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if h.store.IsRebuilding() {
		WriteError(w, http.StatusConflict, knowledge.ErrRebuildInProgress.Error())
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), rebuildTimeout)
		defer cancel()

		result, err := h.store.Rebuild(ctx, h.lister)
		if err != nil {
			WriteError(w, rebuildErrorStatus(err), err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, result)
		return
	}

	common.SafeGo(h.logger, "knowledge-rebuild", func() {
		ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
		defer cancel()
		if _, err := h.store.Rebuild(ctx, h.lister); err != nil {
			h.logger.Warn().Err(err).Msg("Requested knowledge base rebuild failed")
		}
	})

	WriteStarted(w, "Knowledge base rebuild started")
}

func rebuildErrorStatus(err error) int {
	switch {
	case errors.Is(err, knowledge.ErrRebuildInProgress):
		return http.StatusConflict
	case errors.Is(err, knowledge.ErrNoSources):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// StatusHandler handles GET /api/knowledge/status
func (h *KnowledgeHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, h.store.Status())
}
