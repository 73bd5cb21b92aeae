package search

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// HybridService coordinates combined vector+keyword retrieval. It embeds
// the query, translates filters, calls the search backend, and falls back
// to keyword-only search when the backend fails. Retrieval failure always
// degrades to an empty result list, never an error to the caller.
type HybridService struct {
	embedder interfaces.EmbeddingService
	backend  interfaces.SearchBackend
	metrics  interfaces.MetricsRecorder
	logger   arbor.ILogger
	config   *common.Config
}

func NewHybridService(embedder interfaces.EmbeddingService, backend interfaces.SearchBackend, metrics interfaces.MetricsRecorder, logger arbor.ILogger, config *common.Config) *HybridService {
	return &HybridService{
		embedder: embedder,
		backend:  backend,
		metrics:  metrics,
		logger:   logger,
		config:   config,
	}
}

// Search runs the hybrid retrieval pipeline for one query. The returned
// response is ordered by descending combined score with vector-score
// tie-breaking. fallback reports whether keyword-only search was used.
func (s *HybridService) Search(ctx context.Context, queryText string, opts *models.RetrievalOptions) (*models.SearchResponse, bool, error) {
	opts = s.applyDefaults(opts)

	embedding, embedded := s.embedQuery(ctx, queryText)

	vectorWeight := opts.VectorWeight
	keywordWeight := opts.KeywordWeight
	if !embedded {
		// Without a query embedding the vector component carries no
		// signal, so shift all weight to keyword matching.
		vectorWeight = 0
		keywordWeight = 1.0
	}

	req := &interfaces.HybridSearchRequest{
		QueryText:      queryText,
		QueryEmbedding: embedding,
		MatchThreshold: opts.MatchThreshold,
		MatchCount:     opts.Limit,
		VectorWeight:   vectorWeight,
		KeywordWeight:  keywordWeight,
		Filter:         TranslateFilter(opts),
	}

	start := time.Now()
	response, err := s.backend.HybridSearch(ctx, req)
	if err == nil && response != nil && len(response.Results) > 0 {
		s.metrics.Record("search", "hybrid", time.Since(start), true, "")
		return response, false, nil
	}

	switch {
	case err != nil:
		s.logger.Warn().
			Err(err).
			Str("query", queryText).
			Msg("Hybrid search failed, falling back to keyword-only search")
		s.metrics.Record("search", "hybrid", time.Since(start), false, "backend_unavailable")
	case response == nil:
		s.logger.Warn().
			Str("query", queryText).
			Msg("Hybrid search returned no response, falling back to keyword-only search")
		s.metrics.Record("search", "hybrid", time.Since(start), false, "malformed_response")
	default:
		s.logger.Debug().
			Str("query", queryText).
			Msg("Hybrid search returned no results, trying keyword-only search")
		s.metrics.Record("search", "hybrid", time.Since(start), false, "empty_result")
	}

	return s.keywordFallback(ctx, queryText, opts)
}

// keywordFallback runs the keyword-only search path. Total backend
// unavailability yields an empty response with a nil error.
func (s *HybridService) keywordFallback(ctx context.Context, queryText string, opts *models.RetrievalOptions) (*models.SearchResponse, bool, error) {
	start := time.Now()
	response, err := s.backend.KeywordSearch(ctx, queryText, opts.Limit)
	if err != nil || response == nil {
		s.logger.Error().
			Err(err).
			Str("query", queryText).
			Msg("Keyword fallback search failed, returning empty results")
		s.metrics.Record("search", "keyword_fallback", time.Since(start), false, "backend_unavailable")
		return &models.SearchResponse{Results: []models.ScoredCandidate{}}, true, nil
	}

	s.metrics.Record("search", "keyword_fallback", time.Since(start), true, "")
	return response, true, nil
}

// embedQuery embeds the query text, degrading to a zero vector on provider
// failure so retrieval can continue on the keyword path.
func (s *HybridService) embedQuery(ctx context.Context, queryText string) ([]float32, bool) {
	start := time.Now()
	embedding, err := s.embedder.Embed(ctx, queryText, interfaces.TaskTypeQuery)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("Query embedding failed, using zero vector")
		s.metrics.Record("embedding", "embed_query", time.Since(start), false, "backend_unavailable")
		return make([]float32, s.embedder.Dimension()), false
	}

	s.metrics.Record("embedding", "embed_query", time.Since(start), true, "")
	return embedding, true
}

func (s *HybridService) applyDefaults(opts *models.RetrievalOptions) *models.RetrievalOptions {
	resolved := models.RetrievalOptions{}
	if opts != nil {
		resolved = *opts
	}
	if resolved.Limit <= 0 {
		resolved.Limit = s.config.Search.Limit
	}
	if resolved.VectorWeight == 0 && resolved.KeywordWeight == 0 {
		resolved.VectorWeight = s.config.Search.VectorWeight
		resolved.KeywordWeight = s.config.Search.KeywordWeight
	}
	if resolved.MatchThreshold == 0 {
		resolved.MatchThreshold = s.config.Search.MatchThreshold
	}
	return &resolved
}
