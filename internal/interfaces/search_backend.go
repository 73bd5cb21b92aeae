package interfaces

import (
	"context"

	"github.com/ternarybob/respondeo/internal/models"
)

// SearchFilter is the backend's structured filter representation,
// translated from models.RetrievalOptions by the coordinator.
type SearchFilter struct {
	Categories        []string           `json:"categories,omitempty"`
	TechnicalLevel    *models.LevelRange `json:"technical_level,omitempty"`
	Entities          []string           `json:"entities,omitempty"`
	IncludeDeprecated bool               `json:"include_deprecated,omitempty"`
	OnlyAuthoritative bool               `json:"only_authoritative,omitempty"`
}

// HybridSearchRequest carries one combined vector+keyword search call
type HybridSearchRequest struct {
	QueryText      string
	QueryEmbedding []float32
	MatchThreshold float64
	MatchCount     int
	VectorWeight   float64
	KeywordWeight  float64
	Filter         *SearchFilter
}

// SearchBackend is the external vector/keyword store. The retrieval core
// treats it as an opaque similarity oracle; failures are recovered by the
// coordinator's keyword-only fallback, never surfaced to callers.
type SearchBackend interface {
	// HybridSearch runs the combined vector+keyword search
	HybridSearch(ctx context.Context, req *HybridSearchRequest) (*models.SearchResponse, error)

	// KeywordSearch runs a keyword-only search (fallback path)
	KeywordSearch(ctx context.Context, queryText string, matchCount int) (*models.SearchResponse, error)
}
