package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createRetrieveChunksTool returns the retrieve_chunks tool definition
func createRetrieveChunksTool() mcp.Tool {
	return mcp.NewTool("retrieve_chunks",
		mcp.WithDescription("Run hybrid vector+keyword retrieval over the knowledge corpus and return ranked chunks with scores"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum chunks to return (default: 10, max: 50)"),
		),
		mcp.WithArray("categories",
			mcp.WithStringItems(),
			mcp.Description("Filter by primary/secondary category"),
		),
		mcp.WithBoolean("only_authoritative",
			mcp.Description("Return only authoritative chunks"),
		),
		mcp.WithBoolean("rerank",
			mcp.Description("Apply LLM reranking to the top candidates"),
		),
	)
}

// createGenerateAnswerTool returns the generate_answer tool definition
func createGenerateAnswerTool() mcp.Tool {
	return mcp.NewTool("generate_answer",
		mcp.WithDescription("Run the full retrieval pipeline and generate a grounded answer with source citations"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language question"),
		),
		mcp.WithBoolean("expand_query",
			mcp.Description("Expand the query with related terms before retrieval"),
		),
		mcp.WithBoolean("rerank",
			mcp.Description("Apply LLM reranking before answer generation"),
		),
	)
}
