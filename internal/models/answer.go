package models

import "time"

// AnswerSource identifies one cited chunk in a generated answer
type AnswerSource struct {
	Index           int    `json:"index"` // 1-based citation index used in the prompt
	ChunkID         string `json:"chunk_id"`
	DocumentID      string `json:"document_id"`
	Source          string `json:"source"`
	IsAuthoritative bool   `json:"is_authoritative,omitempty"`
	LastUpdated     string `json:"last_updated,omitempty"`
}

// Answer is the final output of the pipeline
type Answer struct {
	Text           string         `json:"text"`
	Sources        []AnswerSource `json:"sources,omitempty"`
	Conversational bool           `json:"conversational,omitempty"` // produced by the conversational fast path
	Degraded       bool           `json:"degraded,omitempty"`       // a fallback message rather than a grounded answer
	Model          string         `json:"model,omitempty"`
}

// PerformanceMetric records one timed operation for observability
type PerformanceMetric struct {
	Component string        `json:"component"`
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	ErrorKind string        `json:"error_kind,omitempty"`
	At        time.Time     `json:"at"`
}
