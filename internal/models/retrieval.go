package models

// QueryType classifies the intent of a user query
type QueryType string

const (
	QueryTypeFactual        QueryType = "factual"
	QueryTypeComparative    QueryType = "comparative"
	QueryTypeConversational QueryType = "conversational"
)

// QueryAnalysis is the immutable result of analyzing a query's text.
// Derived purely from the query; safe to cache and share.
type QueryAnalysis struct {
	Query            string    `json:"query"`
	Type             QueryType `json:"query_type"`
	PrimaryCategory  string    `json:"primary_category,omitempty"`
	Entities         []string  `json:"entities,omitempty"`
	TechnicalLevel   LevelRange `json:"technical_level_range"`
	HybridRatio      float64   `json:"hybrid_ratio"` // vector weight 0-1; keyword weight is 1-ratio
	ShortCircuit     bool      `json:"short_circuit"` // basic conversational input, skip retrieval
}

// LevelRange is an inclusive technical-level band
type LevelRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether level falls inside the range
func (r LevelRange) Contains(level int) bool {
	return level >= r.Min && level <= r.Max
}

// RetrievalOptions is the per-call configuration bag for hybrid search.
// Never shared mutable state across calls.
type RetrievalOptions struct {
	Limit          int     `json:"limit,omitempty"`
	VectorWeight   float64 `json:"vector_weight,omitempty"`
	KeywordWeight  float64 `json:"keyword_weight,omitempty"`
	MatchThreshold float64 `json:"match_threshold,omitempty"`

	Categories         []string   `json:"categories,omitempty"`
	TechnicalLevel     *LevelRange `json:"technical_level,omitempty"`
	Entities           []string   `json:"entities,omitempty"`
	IncludeDeprecated  bool       `json:"include_deprecated,omitempty"`
	OnlyAuthoritative  bool       `json:"only_authoritative,omitempty"`

	ExpandQuery bool `json:"expand_query,omitempty"`
	Rerank      bool `json:"rerank,omitempty"`
}

// ScoredCandidate pairs a chunk with its per-signal and blended scores.
// Created per query and discarded when the query completes.
type ScoredCandidate struct {
	Chunk         *DocumentChunk `json:"chunk"`
	VectorScore   float64        `json:"vector_score"`   // 0-1, cosine-similarity derived
	BM25Score     float64        `json:"bm25_score"`     // non-negative, unbounded
	CombinedScore float64        `json:"combined_score"` // weighted blend
}

// CombineScores computes the deterministic weighted blend of a normalized
// keyword score and a vector score. keywordNorm must already be in 0-1.
func CombineScores(vectorScore, keywordNorm, vectorWeight, keywordWeight float64) float64 {
	return vectorWeight*vectorScore + keywordWeight*keywordNorm
}

// SearchResponse is the typed result container returned by search backends:
// a results sequence plus optional facet counts. Replaces duck-typed
// responses that double as plain arrays.
type SearchResponse struct {
	Results []ScoredCandidate `json:"results"`
	Facets  map[string]int    `json:"facets,omitempty"`
}

// RetrievalResult is the outcome of the retrieve operation
type RetrievalResult struct {
	Candidates []ScoredCandidate `json:"results"`
	Analysis   *QueryAnalysis    `json:"analysis,omitempty"`
	Expanded   string            `json:"expanded_query,omitempty"`
	Fallback   bool              `json:"keyword_fallback,omitempty"` // keyword-only fallback was used
}
