package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/respondeo/internal/models"
)

// formatCandidates renders a retrieval result as markdown for MCP clients
func formatCandidates(query string, result *models.RetrievalResult) string {
	if len(result.Candidates) == 0 {
		return fmt.Sprintf("No chunks found for query: %q", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Retrieval results for %q\n\n", query)
	if result.Expanded != "" {
		fmt.Fprintf(&b, "Expanded query: %s\n\n", result.Expanded)
	}
	if result.Fallback {
		b.WriteString("Note: keyword-only fallback search was used.\n\n")
	}

	for i, candidate := range result.Candidates {
		chunk := candidate.Chunk
		fmt.Fprintf(&b, "## %d. %s (score %.3f)\n", i+1, chunk.Metadata.Source, candidate.CombinedScore)
		fmt.Fprintf(&b, "- Chunk: `%s` (document `%s`, index %d)\n", chunk.ID, chunk.DocumentID, chunk.ChunkIndex)
		fmt.Fprintf(&b, "- Scores: vector %.3f, bm25 %.3f\n", candidate.VectorScore, candidate.BM25Score)
		if chunk.Metadata.PrimaryCategory != "" {
			fmt.Fprintf(&b, "- Category: %s\n", chunk.Metadata.PrimaryCategory)
		}
		if chunk.Metadata.IsAuthoritative {
			b.WriteString("- Authoritative\n")
		}
		if chunk.Metadata.IsDeprecated {
			b.WriteString("- Deprecated\n")
		}

		text := chunk.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Fprintf(&b, "\n%s\n\n", text)
	}
	return b.String()
}

// formatAnswer renders a generated answer with its source citations
func formatAnswer(answer *models.Answer) string {
	var b strings.Builder
	b.WriteString(answer.Text)

	if len(answer.Sources) > 0 {
		b.WriteString("\n\n---\nSources:\n")
		for _, source := range answer.Sources {
			fmt.Fprintf(&b, "- [%d] %s", source.Index, source.Source)
			if source.IsAuthoritative {
				b.WriteString(" (authoritative)")
			}
			if source.LastUpdated != "" {
				fmt.Fprintf(&b, " (updated %s)", source.LastUpdated)
			}
			b.WriteString("\n")
		}
	}
	if answer.Degraded {
		b.WriteString("\nNote: this answer was generated under degraded conditions.\n")
	}
	return b.String()
}
