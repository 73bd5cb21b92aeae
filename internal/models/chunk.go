package models

import (
	"fmt"
	"time"
)

// DocumentChunk is one retrievable unit of the knowledge corpus.
// Chunks are created at ingestion and are read-only inside the retrieval
// pipeline; approval and conflict-resolution workflows own metadata changes.
type DocumentChunk struct {
	ID         string `json:"id" yaml:"id"`
	DocumentID string `json:"document_id" yaml:"document_id"`
	ChunkIndex int    `json:"chunk_index" yaml:"chunk_index"`

	// Text is the prepared/contextualized form used for scoring and prompts;
	// OriginalText preserves the raw source text.
	Text         string `json:"text" yaml:"text"`
	OriginalText string `json:"original_text,omitempty" yaml:"original_text,omitempty"`

	// Embedding may be empty when the backend stores vectors server-side
	Embedding []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty"`

	Metadata ChunkMetadata `json:"metadata" yaml:"metadata"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ChunkMetadata carries the known optional fields plus an open extension
// map for forward-compatible metadata.
type ChunkMetadata struct {
	Source              string     `json:"source" yaml:"source"`
	LastUpdated         *time.Time `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	PrimaryCategory     string     `json:"primary_category,omitempty" yaml:"primary_category,omitempty"`
	SecondaryCategories []string   `json:"secondary_categories,omitempty" yaml:"secondary_categories,omitempty"`
	TechnicalLevel      int        `json:"technical_level" yaml:"technical_level"` // 0-5
	Entities            []string   `json:"entities,omitempty" yaml:"entities,omitempty"`
	TechnicalFeatures   []string   `json:"technical_features,omitempty" yaml:"technical_features,omitempty"`
	PainPoints          []string   `json:"pain_points,omitempty" yaml:"pain_points,omitempty"`
	IsAuthoritative     bool       `json:"is_authoritative" yaml:"is_authoritative"`
	IsDeprecated        bool       `json:"is_deprecated" yaml:"is_deprecated"`

	// Extra holds source-specific fields not modeled above
	Extra map[string]interface{} `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Validate checks chunk-level invariants
func (c *DocumentChunk) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("chunk ID is required")
	}
	if c.DocumentID == "" {
		return fmt.Errorf("chunk %s: document ID is required", c.ID)
	}
	if c.ChunkIndex < 0 {
		return fmt.Errorf("chunk %s: chunk index must be non-negative", c.ID)
	}
	if c.Metadata.IsAuthoritative && c.Metadata.IsDeprecated {
		return fmt.Errorf("chunk %s: authoritative and deprecated are mutually exclusive", c.ID)
	}
	if c.Metadata.TechnicalLevel < 0 || c.Metadata.TechnicalLevel > 5 {
		return fmt.Errorf("chunk %s: technical level must be 0-5 (got %d)", c.ID, c.Metadata.TechnicalLevel)
	}
	return nil
}
