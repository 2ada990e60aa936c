package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/kotae/internal/app"
	"github.com/ternarybob/kotae/internal/common"
	"github.com/ternarybob/kotae/internal/services/rag"
)

func main() {
	configPath := os.Getenv("KOTAE_CONFIG")
	if configPath == "" {
		configPath = "kotae.toml"
	}

	var paths []string
	if _, err := os.Stat(configPath); err == nil {
		paths = append(paths, configPath)
	}
	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Console only at warn level, stdout belongs to the MCP transport
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corpus := app.NewCorpus(ctx, config, logger)
	defer corpus.LLMService.Close()

	// Tools answer "not ready" until the first build publishes a snapshot
	common.SafeGoWithContext(ctx, logger, "mcp-corpus-build", func() {
		if _, err := corpus.Store.Rebuild(ctx, corpus.Lister); err != nil {
			logger.Error().Err(err).Msg("Initial corpus build failed")
		}
	})

	ragConfig := rag.ConfigFromKnowledge(config.Knowledge)

	mcpServer := server.NewMCPServer(
		"kotae",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createSearchKnowledgeTool(), handleSearchKnowledge(corpus.Search, corpus.Store, ragConfig.Lenient, logger))
	mcpServer.AddTool(createAssessQueryTool(), handleAssessQuery(corpus.Search, corpus.Store, ragConfig.Strict, ragConfig.Gate))
	mcpServer.AddTool(createCorpusStatusTool(), handleCorpusStatus(corpus.Store))
	mcpServer.AddTool(createRebuildCorpusTool(), handleRebuildCorpus(corpus.Store, corpus.Lister, logger))

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
