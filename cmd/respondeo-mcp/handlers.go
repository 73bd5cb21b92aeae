package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// handleRetrieveChunks implements the retrieve_chunks tool
func handleRetrieveChunks(retrievalService interfaces.RetrievalService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}

		limit := request.GetInt("limit", 10)
		if limit > 50 {
			limit = 50
		}

		opts := &models.RetrievalOptions{
			Limit:             limit,
			Categories:        request.GetStringSlice("categories", nil),
			OnlyAuthoritative: request.GetBool("only_authoritative", false),
			Rerank:            request.GetBool("rerank", false),
		}

		result, err := retrievalService.Retrieve(ctx, query, opts)
		if err != nil {
			logger.Error().Err(err).Msg("Retrieve failed")
			return textResult(fmt.Sprintf("Retrieval error: %v", err)), nil
		}

		return textResult(formatCandidates(query, result)), nil
	}
}

// handleGenerateAnswer implements the generate_answer tool
func handleGenerateAnswer(retrievalService interfaces.RetrievalService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}

		opts := &models.RetrievalOptions{
			ExpandQuery: request.GetBool("expand_query", false),
			Rerank:      request.GetBool("rerank", false),
		}

		answer, err := retrievalService.Answer(ctx, query, opts)
		if err != nil {
			logger.Error().Err(err).Msg("Answer generation failed")
			return textResult(fmt.Sprintf("Answer error: %v", err)), nil
		}

		return textResult(formatAnswer(answer)), nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
