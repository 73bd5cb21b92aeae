package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// Generator produces the final grounded answer. The whole generation run,
// retries included, races an overall deadline; losing the race yields a
// user-facing "taking longer than expected" message instead of blocking.
type Generator struct {
	completion interfaces.CompletionService
	assembler  *ContextAssembler
	metrics    interfaces.MetricsRecorder
	logger     arbor.ILogger
	config     *common.Config
}

func NewGenerator(completion interfaces.CompletionService, assembler *ContextAssembler, metrics interfaces.MetricsRecorder, logger arbor.ILogger, config *common.Config) *Generator {
	return &Generator{
		completion: completion,
		assembler:  assembler,
		metrics:    metrics,
		logger:     logger,
		config:     config,
	}
}

// Generate answers a query from ranked candidates. Conversational queries
// skip retrieval context entirely; an empty candidate list produces the
// no-information message rather than an error.
func (g *Generator) Generate(ctx context.Context, query string, analysis *models.QueryAnalysis, candidates []models.ScoredCandidate) *models.Answer {
	if analysis != nil && analysis.ShortCircuit {
		return g.conversational(ctx, query)
	}

	if len(candidates) == 0 {
		return &models.Answer{
			Text:    noInformationMessage,
			Sources: []models.AnswerSource{},
		}
	}

	assembled := g.assembler.Assemble(ctx, query, candidates)

	budget := common.Duration(g.config.Answer.Timeout, 30*time.Second)
	start := time.Now()

	text, err := common.RunWithDeadline(ctx, budget, func(ctx context.Context) (string, error) {
		return g.generateWithRetry(ctx, query, assembled.Text)
	})
	if err != nil {
		answer := &models.Answer{
			Sources:  assembled.Sources,
			Degraded: true,
		}
		if errors.Is(err, common.ErrDeadlineExceeded) {
			g.logger.Warn().
				Dur("elapsed", time.Since(start)).
				Msg("Answer generation exceeded overall deadline")
			answer.Text = timeoutMessage
		} else {
			g.logger.Error().
				Err(err).
				Dur("elapsed", time.Since(start)).
				Msg("Answer generation failed after retries")
			answer.Text = failureMessage
		}
		return answer
	}

	return &models.Answer{
		Text:     text,
		Sources:  assembled.Sources,
		Degraded: assembled.Summarized || assembled.Truncated,
		Model:    g.modelName(),
	}
}

// generateWithRetry runs generation attempts under the retry policy, with
// a per-attempt timeout so one stalled call cannot eat the whole budget.
func (g *Generator) generateWithRetry(ctx context.Context, query string, contextText string) (string, error) {
	attemptBudget := common.Duration(g.config.Answer.AttemptTimeout, 15*time.Second)

	policy := common.DefaultRetryPolicy()
	if g.config.Answer.MaxAttempts > 0 {
		policy.MaxAttempts = g.config.Answer.MaxAttempts
	}

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, query)

	attempt := 0
	var text string
	err := policy.Retry(ctx, func(ctx context.Context) error {
		attempt++
		start := time.Now()

		result, err := common.RunWithDeadline(ctx, attemptBudget, func(ctx context.Context) (string, error) {
			return g.completion.Complete(ctx, &interfaces.CompletionRequest{
				System:      answerSystemPrompt,
				Prompt:      prompt,
				Temperature: 0.2,
				MaxTokens:   1024,
			})
		})
		if err != nil {
			g.metrics.Record("answer", "generate", time.Since(start), false, attemptErrKind(err))
			g.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("elapsed", time.Since(start)).
				Msg("Generation attempt failed")
			return err
		}
		if strings.TrimSpace(result) == "" {
			g.metrics.Record("answer", "generate", time.Since(start), false, "empty_reply")
			return fmt.Errorf("completion returned empty text")
		}

		g.metrics.Record("answer", "generate", time.Since(start), true, "")
		text = strings.TrimSpace(result)
		return nil
	})
	return text, err
}

// conversational handles greetings and small talk without retrieval. The
// LLM reply is best-effort; failure falls back to a canned greeting.
func (g *Generator) conversational(ctx context.Context, query string) *models.Answer {
	answer := &models.Answer{
		Conversational: true,
		Sources:        []models.AnswerSource{},
	}

	if g.completion == nil {
		answer.Text = conversationalFallback
		return answer
	}

	start := time.Now()
	text, err := common.RunWithDeadline(ctx, 5*time.Second, func(ctx context.Context) (string, error) {
		return g.completion.Complete(ctx, &interfaces.CompletionRequest{
			System:      conversationalSystemPrompt,
			Prompt:      query,
			Temperature: 0.7,
			MaxTokens:   128,
		})
	})
	if err != nil || strings.TrimSpace(text) == "" {
		g.metrics.Record("answer", "conversational", time.Since(start), false, attemptErrKind(err))
		answer.Text = conversationalFallback
		return answer
	}

	g.metrics.Record("answer", "conversational", time.Since(start), true, "")
	answer.Text = strings.TrimSpace(text)
	answer.Model = g.modelName()
	return answer
}

func (g *Generator) modelName() string {
	if g.config.LLM.DefaultProvider == "claude" {
		return g.config.Claude.Model
	}
	return g.config.Gemini.Model
}

func attemptErrKind(err error) string {
	switch {
	case err == nil:
		return "empty_reply"
	case errors.Is(err, common.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "backend_unavailable"
	}
}
