package query

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

const expansionSystemPrompt = `You generate search expansion terms. Given a query, reply with a comma-separated list of closely related terms, synonyms, or domain phrases that would help a keyword search find relevant documents. Reply with the terms only, no explanation.`

// Expander augments queries with related terms before retrieval. Expansion
// is best-effort: any failure or timeout returns the original query.
type Expander struct {
	completion interfaces.CompletionService
	logger     arbor.ILogger
	config     *common.Config
}

func NewExpander(completion interfaces.CompletionService, logger arbor.ILogger, config *common.Config) *Expander {
	return &Expander{
		completion: completion,
		logger:     logger,
		config:     config,
	}
}

// Expand returns the query with up to the configured number of related terms
// appended. The LLM call races a short deadline; on timeout or error the
// original query is returned unchanged.
func (e *Expander) Expand(ctx context.Context, queryText string) string {
	if e.completion == nil || strings.TrimSpace(queryText) == "" {
		return queryText
	}

	budget := common.Duration(e.config.Search.ExpansionTime, 2*time.Second)
	maxTerms := e.config.Search.ExpansionTerms
	if maxTerms <= 0 {
		maxTerms = 4
	}

	start := time.Now()
	raw, err := common.RunWithDeadline(ctx, budget, func(ctx context.Context) (string, error) {
		return e.completion.Complete(ctx, &interfaces.CompletionRequest{
			System:      expansionSystemPrompt,
			Prompt:      queryText,
			Temperature: 0.3,
			MaxTokens:   128,
		})
	})
	if err != nil {
		e.logger.Debug().
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Query expansion skipped")
		return queryText
	}

	terms := parseExpansionTerms(raw, queryText, maxTerms)
	if len(terms) == 0 {
		return queryText
	}

	e.logger.Debug().
		Int("terms_added", len(terms)).
		Dur("elapsed", time.Since(start)).
		Msg("Query expanded")

	return queryText + " " + strings.Join(terms, " ")
}

// parseExpansionTerms extracts up to maxTerms usable terms from the model
// reply, dropping duplicates and terms already present in the query.
func parseExpansionTerms(raw string, queryText string, maxTerms int) []string {
	lowerQuery := strings.ToLower(queryText)
	seen := make(map[string]bool)
	var terms []string

	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' || r == ';' }) {
		term := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"'-*`))
		if term == "" || len(term) > 64 {
			continue
		}
		key := strings.ToLower(term)
		if seen[key] || strings.Contains(lowerQuery, key) {
			continue
		}
		seen[key] = true
		terms = append(terms, term)
		if len(terms) >= maxTerms {
			break
		}
	}
	return terms
}
