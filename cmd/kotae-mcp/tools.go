package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createSearchKnowledgeTool returns the search_knowledge tool definition
func createSearchKnowledgeTool() mcp.Tool {
	return mcp.NewTool("search_knowledge",
		mcp.WithDescription("Search the kotae knowledge base with keyword relevance scoring (Japanese and English)"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language question or keywords"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum results to return (default: configured lenient profile, max: 50)"),
		),
		mcp.WithNumber("min_score",
			mcp.Description("Drop results scoring below this value (default: 0)"),
		),
		mcp.WithString("classification",
			mcp.Description("Only documents with this classification"),
		),
		mcp.WithString("category",
			mcp.Description("Only documents with this category"),
		),
		mcp.WithString("good_bad_example",
			mcp.Description("Only documents with this good/bad example marker"),
		),
	)
}

// createAssessQueryTool returns the assess_query tool definition
func createAssessQueryTool() mcp.Tool {
	return mcp.NewTool("assess_query",
		mcp.WithDescription("Decide whether the knowledge base holds enough evidence to answer a question in strict mode"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Question to assess"),
		),
	)
}

// createCorpusStatusTool returns the corpus_status tool definition
func createCorpusStatusTool() mcp.Tool {
	return mcp.NewTool("corpus_status",
		mcp.WithDescription("Report document and image counts and the last build time of the knowledge base"),
	)
}

// createRebuildCorpusTool returns the rebuild_corpus tool definition
func createRebuildCorpusTool() mcp.Tool {
	return mcp.NewTool("rebuild_corpus",
		mcp.WithDescription("Reload every source listed in the source sheet and replace the knowledge base"),
	)
}
