package index

import (
	"math"

	"github.com/ternarybob/respondeo/internal/models"
)

const (
	DefaultBM25K1 = 1.2
	DefaultBM25B  = 0.75
)

// BM25Scorer scores documents against queries using Okapi BM25 with
// precomputed corpus statistics.
type BM25Scorer struct {
	k1    float64
	b     float64
	stats *models.CorpusStatistics
}

func NewBM25Scorer(stats *models.CorpusStatistics, k1, b float64) *BM25Scorer {
	if k1 <= 0 {
		k1 = DefaultBM25K1
	}
	if b < 0 || b > 1 {
		b = DefaultBM25B
	}
	return &BM25Scorer{
		k1:    k1,
		b:     b,
		stats: stats,
	}
}

// Score computes the BM25 score of a document for a query. Terms absent from
// the corpus contribute zero, and an empty query or document scores zero.
func (s *BM25Scorer) Score(queryTerms []string, docTerms []string) float64 {
	if len(queryTerms) == 0 || len(docTerms) == 0 {
		return 0
	}
	if s.stats == nil || s.stats.Empty() {
		return 0
	}

	docLen := float64(len(docTerms))
	avgLen := s.stats.AverageDocumentLength
	if avgLen <= 0 {
		avgLen = docLen
	}

	docCounts := TermCounts(docTerms)

	var score float64
	for _, term := range queryTerms {
		tf := float64(docCounts[term])
		if tf == 0 {
			continue
		}

		idf := s.IDF(term)
		if idf == 0 {
			continue
		}

		norm := tf + s.k1*(1-s.b+s.b*docLen/avgLen)
		score += idf * (tf * (s.k1 + 1)) / norm
	}
	return score
}

// ScoreText tokenizes both inputs and scores them.
func (s *BM25Scorer) ScoreText(query string, docText string) float64 {
	return s.Score(Tokenize(query), Tokenize(docText))
}

// IDF returns the inverse document frequency of a term. Negative values,
// which occur when a term appears in more than half the corpus, are clamped
// to zero so common terms never penalize a matching document.
func (s *BM25Scorer) IDF(term string) float64 {
	df := float64(s.stats.DocumentFrequency[term])
	if df == 0 {
		return 0
	}

	n := float64(s.stats.TotalDocuments)
	idf := math.Log((n - df + 0.5) / (df + 0.5))
	if idf < 0 {
		return 0
	}
	return idf
}
