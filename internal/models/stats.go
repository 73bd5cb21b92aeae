package models

import (
	"fmt"
	"time"
)

// CorpusStatistics holds the aggregate term/document frequencies BM25
// scoring needs. Rebuilt by an offline batch job whenever the corpus
// changes; loaded read-only at query time. Stale statistics degrade
// ranking quality but never produce incorrect results.
type CorpusStatistics struct {
	TotalDocuments        int            `json:"total_documents"`
	AverageDocumentLength float64        `json:"average_document_length"`
	DocumentFrequency     map[string]int `json:"document_frequency"` // term -> documents containing term
	TermFrequency         map[string]int `json:"term_frequency"`     // term -> total occurrences
	BuiltAt               time.Time      `json:"built_at"`
}

// NewCorpusStatistics returns empty statistics ready for accumulation
func NewCorpusStatistics() *CorpusStatistics {
	return &CorpusStatistics{
		DocumentFrequency: make(map[string]int),
		TermFrequency:     make(map[string]int),
	}
}

// Validate checks the df <= N invariant for every term
func (s *CorpusStatistics) Validate() error {
	for term, df := range s.DocumentFrequency {
		if df < 0 {
			return fmt.Errorf("term %q: negative document frequency %d", term, df)
		}
		if df > s.TotalDocuments {
			return fmt.Errorf("term %q: document frequency %d exceeds total documents %d",
				term, df, s.TotalDocuments)
		}
	}
	return nil
}

// Empty reports whether the statistics cover no documents
func (s *CorpusStatistics) Empty() bool {
	return s == nil || s.TotalDocuments == 0
}
