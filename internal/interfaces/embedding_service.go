package interfaces

import "context"

// EmbeddingTaskType distinguishes query embeddings from document embeddings.
// Providers weight the two differently; the interface shape is identical.
type EmbeddingTaskType string

const (
	TaskTypeQuery    EmbeddingTaskType = "RETRIEVAL_QUERY"
	TaskTypeDocument EmbeddingTaskType = "RETRIEVAL_DOCUMENT"
)

// EmbeddingService generates fixed-dimension vector embeddings
type EmbeddingService interface {
	// Embed generates an embedding for a single text
	Embed(ctx context.Context, text string, taskType EmbeddingTaskType) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call
	EmbedBatch(ctx context.Context, texts []string, taskType EmbeddingTaskType) ([][]float32, error)

	// ModelName returns the embedding model identifier
	ModelName() string

	// Dimension returns the embedding vector length
	Dimension() int

	// IsAvailable checks if the service can be reached
	IsAvailable(ctx context.Context) bool
}
