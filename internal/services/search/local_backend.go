package search

import (
	"context"
	"math"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/index"
)

// LocalBackend serves hybrid and keyword search directly from chunk storage.
// Vector scores come from cosine similarity against stored embeddings and
// keyword scores from BM25 over the current statistics snapshot. It stands
// in for a managed vector store behind the same SearchBackend contract.
type LocalBackend struct {
	chunks interfaces.ChunkStorage
	stats  *index.StatsBuilder
	logger arbor.ILogger
}

var _ interfaces.SearchBackend = (*LocalBackend)(nil)

func NewLocalBackend(chunks interfaces.ChunkStorage, stats *index.StatsBuilder, logger arbor.ILogger) *LocalBackend {
	return &LocalBackend{
		chunks: chunks,
		stats:  stats,
		logger: logger,
	}
}

func (b *LocalBackend) HybridSearch(ctx context.Context, req *interfaces.HybridSearchRequest) (*models.SearchResponse, error) {
	scorer := b.stats.Scorer()
	queryTerms := index.Tokenize(req.QueryText)

	var candidates []models.ScoredCandidate
	var maxBM25 float64
	facets := make(map[string]int)

	err := b.chunks.ForEachChunk(func(chunk *models.DocumentChunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !MatchesFilter(chunk, req.Filter) {
			return nil
		}

		vectorScore := cosineSimilarity(req.QueryEmbedding, chunk.Embedding)
		bm25Score := scorer.Score(queryTerms, index.Tokenize(chunk.Text))
		if vectorScore == 0 && bm25Score == 0 {
			return nil
		}
		if bm25Score > maxBM25 {
			maxBM25 = bm25Score
		}

		candidates = append(candidates, models.ScoredCandidate{
			Chunk:       chunk,
			VectorScore: vectorScore,
			BM25Score:   bm25Score,
		})
		if chunk.Metadata.PrimaryCategory != "" {
			facets[chunk.Metadata.PrimaryCategory]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// BM25 is unbounded, so normalize against the best keyword score in
	// this result set before blending.
	for i := range candidates {
		keywordNorm := 0.0
		if maxBM25 > 0 {
			keywordNorm = candidates[i].BM25Score / maxBM25
		}
		candidates[i].CombinedScore = models.CombineScores(
			candidates[i].VectorScore, keywordNorm, req.VectorWeight, req.KeywordWeight)
	}

	filtered := candidates[:0]
	for _, candidate := range candidates {
		if candidate.CombinedScore >= req.MatchThreshold {
			filtered = append(filtered, candidate)
		}
	}

	sortCandidates(filtered)
	if req.MatchCount > 0 && len(filtered) > req.MatchCount {
		filtered = filtered[:req.MatchCount]
	}

	return &models.SearchResponse{Results: filtered, Facets: facets}, nil
}

func (b *LocalBackend) KeywordSearch(ctx context.Context, queryText string, matchCount int) (*models.SearchResponse, error) {
	scorer := b.stats.Scorer()
	queryTerms := index.Tokenize(queryText)

	var candidates []models.ScoredCandidate
	err := b.chunks.ForEachChunk(func(chunk *models.DocumentChunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if chunk.Metadata.IsDeprecated {
			return nil
		}

		score := scorer.Score(queryTerms, index.Tokenize(chunk.Text))
		if score <= 0 {
			return nil
		}
		candidates = append(candidates, models.ScoredCandidate{
			Chunk:         chunk,
			BM25Score:     score,
			CombinedScore: score,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortCandidates(candidates)
	if matchCount > 0 && len(candidates) > matchCount {
		candidates = candidates[:matchCount]
	}
	return &models.SearchResponse{Results: candidates}, nil
}

// sortCandidates orders by combined score descending, breaking ties by
// vector score descending, then stable original order.
func sortCandidates(candidates []models.ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CombinedScore != candidates[j].CombinedScore {
			return candidates[i].CombinedScore > candidates[j].CombinedScore
		}
		return candidates[i].VectorScore > candidates[j].VectorScore
	})
}

// cosineSimilarity returns similarity in 0-1, treating negative cosine as 0.
// Mismatched or empty vectors score 0 rather than erroring.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	return cos
}
