package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// AssembledContext is the prompt-ready context block plus the source list
// used for citation in the final answer.
type AssembledContext struct {
	Text    string
	Sources []models.AnswerSource

	// Summarized is set when the context was condensed by a secondary
	// LLM call; Truncated when it fell back to proportional truncation.
	Summarized bool
	Truncated  bool
}

// ContextAssembler formats top-ranked chunks into labeled source blocks
// under a token budget. Oversized context is summarized by a secondary LLM
// call, and if summarization fails each block is truncated proportionally
// so every source keeps a presence in the prompt.
type ContextAssembler struct {
	completion interfaces.CompletionService
	logger     arbor.ILogger
	config     *common.Config
}

func NewContextAssembler(completion interfaces.CompletionService, logger arbor.ILogger, config *common.Config) *ContextAssembler {
	return &ContextAssembler{
		completion: completion,
		logger:     logger,
		config:     config,
	}
}

// Assemble builds the context block for a query from the top candidates.
func (a *ContextAssembler) Assemble(ctx context.Context, query string, candidates []models.ScoredCandidate) *AssembledContext {
	maxSources := a.config.Answer.MaxSources
	if maxSources <= 0 {
		maxSources = 5
	}
	if len(candidates) > maxSources {
		candidates = candidates[:maxSources]
	}

	blocks := make([]string, 0, len(candidates))
	sources := make([]models.AnswerSource, 0, len(candidates))
	for i, candidate := range candidates {
		index := i + 1
		blocks = append(blocks, a.formatBlock(index, candidate.Chunk))
		source := models.AnswerSource{
			Index:           index,
			ChunkID:         candidate.Chunk.ID,
			DocumentID:      candidate.Chunk.DocumentID,
			Source:          candidate.Chunk.Metadata.Source,
			IsAuthoritative: candidate.Chunk.Metadata.IsAuthoritative,
		}
		if candidate.Chunk.Metadata.LastUpdated != nil {
			source.LastUpdated = candidate.Chunk.Metadata.LastUpdated.Format("2006-01-02")
		}
		sources = append(sources, source)
	}

	assembled := &AssembledContext{
		Text:    strings.Join(blocks, "\n\n"),
		Sources: sources,
	}

	ceiling := a.config.Answer.TokenCeiling
	if ceiling <= 0 {
		ceiling = 6000
	}

	estimated := a.EstimateTokens(query) + a.EstimateTokens(assembled.Text)
	if estimated <= ceiling {
		return assembled
	}

	a.logger.Debug().
		Int("estimated_tokens", estimated).
		Int("ceiling", ceiling).
		Msg("Context over token budget, summarizing")

	if summarized, err := a.summarize(ctx, assembled.Text); err == nil {
		assembled.Text = summarized
		assembled.Summarized = true
		return assembled
	} else {
		a.logger.Warn().Err(err).Msg("Context summarization failed, truncating proportionally")
	}

	assembled.Text = a.truncateProportionally(blocks, ceiling-a.EstimateTokens(query))
	assembled.Truncated = true
	return assembled
}

// formatBlock renders one numbered source block with its metadata tags.
func (a *ContextAssembler) formatBlock(index int, chunk *models.DocumentChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source %d: %s", index, chunk.Metadata.Source)

	var tags []string
	if chunk.Metadata.PrimaryCategory != "" {
		tags = append(tags, "category: "+chunk.Metadata.PrimaryCategory)
	}
	if len(chunk.Metadata.TechnicalFeatures) > 0 {
		tags = append(tags, "features: "+strings.Join(chunk.Metadata.TechnicalFeatures, ", "))
	}
	if len(chunk.Metadata.PainPoints) > 0 {
		tags = append(tags, "pain points: "+strings.Join(chunk.Metadata.PainPoints, ", "))
	}
	if len(chunk.Metadata.Entities) > 0 {
		tags = append(tags, "entities: "+strings.Join(chunk.Metadata.Entities, ", "))
	}
	if chunk.Metadata.IsAuthoritative {
		tags = append(tags, "authoritative")
	}
	if chunk.Metadata.IsDeprecated {
		tags = append(tags, "deprecated")
	}
	if chunk.Metadata.LastUpdated != nil {
		tags = append(tags, "updated: "+chunk.Metadata.LastUpdated.Format("2006-01-02"))
	}
	if len(tags) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(tags, "; "))
	}

	b.WriteString("\n")
	b.WriteString(chunk.Text)
	return b.String()
}

// EstimateTokens approximates the token count of text. The words-based
// multiplier is a calibrated heuristic, not exact tokenization; treat the
// constant as tunable per model family.
func (a *ContextAssembler) EstimateTokens(text string) int {
	perWord := a.config.Answer.TokensPerWord
	if perWord <= 0 {
		perWord = 1.3
	}
	words := len(strings.Fields(text))
	return int(float64(words)*perWord) + 1
}

func (a *ContextAssembler) summarize(ctx context.Context, contextText string) (string, error) {
	if a.completion == nil {
		return "", fmt.Errorf("no completion service available for summarization")
	}

	summarized, err := common.RunWithDeadline(ctx, 10*time.Second, func(ctx context.Context) (string, error) {
		return a.completion.Complete(ctx, &interfaces.CompletionRequest{
			System:      summarizeSystemPrompt,
			Prompt:      contextText,
			Temperature: 0,
			MaxTokens:   2048,
		})
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summarized) == "" {
		return "", fmt.Errorf("summarization returned empty text")
	}
	return summarized, nil
}

// truncateProportionally shrinks every block by the same ratio so that
// information from each source survives, rather than dropping whole blocks.
func (a *ContextAssembler) truncateProportionally(blocks []string, budget int) string {
	if budget < len(blocks)*10 {
		budget = len(blocks) * 10
	}

	total := 0
	for _, block := range blocks {
		total += a.EstimateTokens(block)
	}
	if total == 0 {
		return ""
	}

	ratio := float64(budget) / float64(total)
	if ratio >= 1 {
		return strings.Join(blocks, "\n\n")
	}

	truncated := make([]string, len(blocks))
	for i, block := range blocks {
		words := strings.Fields(block)
		keep := int(float64(len(words)) * ratio)
		if keep < 8 {
			keep = 8
		}
		if keep > len(words) {
			keep = len(words)
		}
		truncated[i] = strings.Join(words[:keep], " ")
	}
	return strings.Join(truncated, "\n\n")
}
