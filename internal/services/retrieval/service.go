// Package retrieval orchestrates the query pipeline: analysis, optional
// expansion, hybrid search, optional reranking, and answer generation.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/answer"
	"github.com/ternarybob/respondeo/internal/services/query"
	"github.com/ternarybob/respondeo/internal/services/rerank"
	"github.com/ternarybob/respondeo/internal/services/search"
)

// ErrEmptyQuery is the only hard error the pipeline surfaces; everything
// downstream degrades to fallbacks or empty results.
var ErrEmptyQuery = fmt.Errorf("query must not be empty")

// Service runs the full retrieval pipeline. Stages execute strictly in
// order per request; concurrent requests are independent.
type Service struct {
	analyzer  *query.Analyzer
	expander  *query.Expander
	hybrid    *search.HybridService
	reranker  *rerank.Service
	generator *answer.Generator
	metrics   interfaces.MetricsRecorder
	logger    arbor.ILogger
}

var _ interfaces.RetrievalService = (*Service)(nil)

func NewService(
	analyzer *query.Analyzer,
	expander *query.Expander,
	hybrid *search.HybridService,
	reranker *rerank.Service,
	generator *answer.Generator,
	metrics interfaces.MetricsRecorder,
	logger arbor.ILogger,
) *Service {
	return &Service{
		analyzer:  analyzer,
		expander:  expander,
		hybrid:    hybrid,
		reranker:  reranker,
		generator: generator,
		metrics:   metrics,
		logger:    logger,
	}
}

// Retrieve analyzes the query and returns ranked candidates. Conversational
// queries short-circuit with an empty candidate list.
func (s *Service) Retrieve(ctx context.Context, queryText string, opts *models.RetrievalOptions) (*models.RetrievalResult, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, ErrEmptyQuery
	}
	if opts == nil {
		opts = &models.RetrievalOptions{}
	}

	start := time.Now()
	analysis := s.analyzer.Analyze(queryText)

	if analysis.ShortCircuit {
		s.logger.Debug().
			Str("query", queryText).
			Msg("Conversational query, skipping retrieval")
		return &models.RetrievalResult{
			Candidates: []models.ScoredCandidate{},
			Analysis:   analysis,
		}, nil
	}

	searchQuery := queryText
	expanded := ""
	if opts.ExpandQuery {
		searchQuery = s.expander.Expand(ctx, queryText)
		if searchQuery != queryText {
			expanded = searchQuery
		}
	}

	searchOpts := s.mergeAnalysis(opts, analysis)
	response, fallback, err := s.hybrid.Search(ctx, searchQuery, searchOpts)
	if err != nil {
		// The coordinator degrades internally; an error here means the
		// request context itself is gone.
		return nil, err
	}

	candidates := response.Results
	if opts.Rerank && len(candidates) > 0 {
		candidates = s.reranker.Rerank(ctx, queryText, candidates)
	}

	s.metrics.Record("retrieval", "retrieve", time.Since(start), true, "")
	s.logger.Info().
		Str("query", queryText).
		Int("candidates", len(candidates)).
		Bool("fallback", fallback).
		Dur("duration", time.Since(start)).
		Msg("Retrieval completed")

	return &models.RetrievalResult{
		Candidates: candidates,
		Analysis:   analysis,
		Expanded:   expanded,
		Fallback:   fallback,
	}, nil
}

// Answer runs retrieval and generates a grounded, cited answer.
func (s *Service) Answer(ctx context.Context, queryText string, opts *models.RetrievalOptions) (*models.Answer, error) {
	result, err := s.Retrieve(ctx, queryText, opts)
	if err != nil {
		return nil, err
	}

	return s.generator.Generate(ctx, queryText, result.Analysis, result.Candidates), nil
}

// mergeAnalysis folds derived retrieval parameters into the caller's
// options without mutating them. Explicit caller values win.
func (s *Service) mergeAnalysis(opts *models.RetrievalOptions, analysis *models.QueryAnalysis) *models.RetrievalOptions {
	merged := *opts

	if merged.VectorWeight == 0 && merged.KeywordWeight == 0 && analysis.HybridRatio > 0 {
		merged.VectorWeight = analysis.HybridRatio
		merged.KeywordWeight = 1 - analysis.HybridRatio
	}
	if len(merged.Categories) == 0 && analysis.PrimaryCategory != "" {
		merged.Categories = []string{analysis.PrimaryCategory}
	}
	if len(merged.Entities) == 0 && len(analysis.Entities) > 0 {
		merged.Entities = analysis.Entities
	}
	return &merged
}
