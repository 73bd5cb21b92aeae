package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/respondeo/internal/models"
)

// RetrievalService is the public pipeline surface: ranked retrieval and
// grounded answer generation over the knowledge corpus.
type RetrievalService interface {
	// Retrieve runs analysis, hybrid search and optional reranking
	Retrieve(ctx context.Context, query string, opts *models.RetrievalOptions) (*models.RetrievalResult, error)

	// Answer runs the full pipeline and generates a cited answer
	Answer(ctx context.Context, query string, opts *models.RetrievalOptions) (*models.Answer, error)
}

// MetricsRecorder records timed operations for observability
type MetricsRecorder interface {
	Record(component, operation string, duration time.Duration, success bool, errKind string)
	Recent(limit int) []models.PerformanceMetric
}
