package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
	"github.com/ternarybob/kotae/internal/services/knowledge"
)

const maxToolResults = 50

// corpusStatus is the part of the store the status tools need
type corpusStatus interface {
	Status() models.CorpusStatus
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleSearchKnowledge implements the search_knowledge tool
func handleSearchKnowledge(search interfaces.KnowledgeSearch, store corpusStatus, defaults models.SearchOptions, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}

		opts := defaults
		opts.MaxResults = min(request.GetInt("max_results", defaults.MaxResults), maxToolResults)
		opts.MinScore = request.GetFloat("min_score", defaults.MinScore)
		opts.Filters = models.SearchFilters{
			Classification: request.GetString("classification", ""),
			Category:       request.GetString("category", ""),
			GoodBadExample: request.GetString("good_bad_example", ""),
		}
		if opts.MaxResults < 0 || opts.MinScore < 0 {
			return textResult("Error: max_results and min_score must not be negative"), nil
		}

		status := store.Status()
		if !status.Initialized {
			return textResult(formatNotReady(status)), nil
		}

		results := search.Search(query, opts)
		logger.Debug().Str("query", query).Int("results", len(results)).Msg("search_knowledge")
		return textResult(formatSearchResults(query, results)), nil
	}
}

// handleAssessQuery implements the assess_query tool
func handleAssessQuery(search interfaces.KnowledgeSearch, store corpusStatus, strict models.SearchOptions, gate knowledge.Gate) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}

		status := store.Status()
		if !status.Initialized {
			return textResult(formatNotReady(status)), nil
		}

		results := search.Search(query, strict)
		return textResult(formatAssessment(query, gate.Assess(results, query), results)), nil
	}
}

// handleCorpusStatus implements the corpus_status tool
func handleCorpusStatus(store corpusStatus) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(formatStatus(store.Status())), nil
	}
}

// handleRebuildCorpus implements the rebuild_corpus tool, blocking until the build finishes
func handleRebuildCorpus(store interfaces.KnowledgeStore, lister interfaces.ContentSourceLister, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := store.Rebuild(ctx, lister)
		switch {
		case errors.Is(err, knowledge.ErrRebuildInProgress):
			return textResult("A rebuild is already running. Check corpus_status for progress."), nil
		case err != nil:
			logger.Error().Err(err).Msg("rebuild_corpus failed")
			return textResult(fmt.Sprintf("Rebuild error: %v", err)), nil
		}
		return textResult(formatBuildResult(result)), nil
	}
}
