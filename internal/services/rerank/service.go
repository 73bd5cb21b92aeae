package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

const rerankSystemPrompt = `You rate how relevant document excerpts are to a search query. For each numbered excerpt, assign a relevance score from 0 (irrelevant) to 10 (directly answers the query). Reply with a JSON array of objects like [{"index": 1, "score": 8}] and nothing else.`

// Service reorders the top candidates with an LLM relevance judgment.
// The pass runs under a hard timeout and batches candidates to bound
// prompt size. Any failure passes the pre-rerank order through unchanged.
type Service struct {
	completion interfaces.CompletionService
	metrics    interfaces.MetricsRecorder
	logger     arbor.ILogger
	config     *common.Config
}

func NewService(completion interfaces.CompletionService, metrics interfaces.MetricsRecorder, logger arbor.ILogger, config *common.Config) *Service {
	return &Service{
		completion: completion,
		metrics:    metrics,
		logger:     logger,
		config:     config,
	}
}

type batchScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Rerank reorders candidates by LLM-judged relevance and returns the top M.
// Input order is the fallback: on timeout, provider error, or an unparsable
// reply the original ordering is truncated to M and returned.
func (s *Service) Rerank(ctx context.Context, query string, candidates []models.ScoredCandidate) []models.ScoredCandidate {
	returnM := s.config.Rerank.ReturnM
	if returnM <= 0 {
		returnM = 5
	}

	if !s.config.Rerank.Enabled || s.completion == nil || len(candidates) <= 1 {
		return truncate(candidates, returnM)
	}

	candidateN := s.config.Rerank.CandidateN
	if candidateN > 0 && len(candidates) > candidateN {
		candidates = candidates[:candidateN]
	}

	budget := common.Duration(s.config.Rerank.Timeout, 5*time.Second)
	start := time.Now()

	scores, err := common.RunWithDeadline(ctx, budget, func(ctx context.Context) (map[int]float64, error) {
		return s.scoreBatches(ctx, query, candidates)
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Rerank pass failed, preserving original order")
		s.metrics.Record("rerank", "rerank", time.Since(start), false, errKind(err))
		return truncate(candidates, returnM)
	}

	// Sort a permutation so scores stay attached to their candidates.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	reordered := make([]models.ScoredCandidate, len(candidates))
	for i, idx := range order {
		reordered[i] = candidates[idx]
	}

	s.metrics.Record("rerank", "rerank", time.Since(start), true, "")
	s.logger.Debug().
		Int("candidates", len(candidates)).
		Dur("elapsed", time.Since(start)).
		Msg("Candidates reranked")

	return truncate(reordered, returnM)
}

// scoreBatches slices candidates into batches and scores them concurrently.
// A batch that fails to score falls back to its original-rank score, so a
// partial failure never loses candidates.
func (s *Service) scoreBatches(ctx context.Context, query string, candidates []models.ScoredCandidate) (map[int]float64, error) {
	batchSize := s.config.Rerank.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	scores := make(map[int]float64, len(candidates))
	for i := range candidates {
		// Original-rank default keeps ordering stable for unscored batches.
		scores[i] = float64(len(candidates) - i)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	var failures int

	for startIdx := 0; startIdx < len(candidates); startIdx += batchSize {
		endIdx := startIdx + batchSize
		if endIdx > len(candidates) {
			endIdx = len(candidates)
		}

		wg.Add(1)
		go func(offset int, batch []models.ScoredCandidate) {
			defer wg.Done()

			batchScores, err := s.scoreBatch(ctx, query, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				return
			}
			// Scores are scaled far above the original-rank defaults so
			// scored candidates always outrank unscored ones.
			for localIdx, score := range batchScores {
				scores[offset+localIdx] = 100 + score
			}
		}(startIdx, candidates[startIdx:endIdx])
	}
	wg.Wait()

	if failures > 0 && failures*batchSize >= len(candidates) {
		return nil, fmt.Errorf("all rerank batches failed")
	}
	return scores, nil
}

func (s *Service) scoreBatch(ctx context.Context, query string, batch []models.ScoredCandidate) (map[int]float64, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Query: %s\n\n", query)
	for i, candidate := range batch {
		text := candidate.Chunk.Text
		if len(text) > 600 {
			text = text[:600]
		}
		fmt.Fprintf(&prompt, "Excerpt %d:\n%s\n\n", i+1, text)
	}

	reply, err := s.completion.Complete(ctx, &interfaces.CompletionRequest{
		System:      rerankSystemPrompt,
		Prompt:      prompt.String(),
		Temperature: 0,
		MaxTokens:   512,
	})
	if err != nil {
		return nil, err
	}

	return parseBatchScores(reply, len(batch))
}

// parseBatchScores extracts the JSON score array from a model reply that
// may wrap it in prose or a code fence.
func parseBatchScores(reply string, batchLen int) (map[int]float64, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in rerank reply")
	}

	var parsed []batchScore
	if err := json.Unmarshal([]byte(reply[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse rerank scores: %w", err)
	}

	scores := make(map[int]float64, len(parsed))
	for _, entry := range parsed {
		idx := entry.Index - 1
		if idx < 0 || idx >= batchLen {
			continue
		}
		scores[idx] = entry.Score
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("rerank reply contained no usable scores")
	}
	return scores, nil
}

func truncate(candidates []models.ScoredCandidate, limit int) []models.ScoredCandidate {
	if limit > 0 && len(candidates) > limit {
		return candidates[:limit]
	}
	return candidates
}

func errKind(err error) string {
	if err == common.ErrDeadlineExceeded {
		return "timeout"
	}
	return "backend_unavailable"
}
