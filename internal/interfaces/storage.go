package interfaces

import (
	"github.com/ternarybob/respondeo/internal/models"
)

// ListOptions configures chunk listing
type ListOptions struct {
	Limit      int
	Offset     int
	DocumentID string
}

// ChunkStorage persists document chunks. The retrieval core only reads;
// writes come from the corpus loader and ingestion-side workflows.
type ChunkStorage interface {
	SaveChunk(chunk *models.DocumentChunk) error
	SaveChunks(chunks []*models.DocumentChunk) error
	GetChunk(id string) (*models.DocumentChunk, error)
	ListChunks(opts *ListOptions) ([]*models.DocumentChunk, error)
	CountChunks() (int, error)

	// ForEachChunk iterates every chunk; used by the statistics builder
	ForEachChunk(fn func(chunk *models.DocumentChunk) error) error

	DeleteChunk(id string) error
}

// StatsStorage persists the corpus statistics snapshot
type StatsStorage interface {
	SaveStatistics(stats *models.CorpusStatistics) error
	LoadStatistics() (*models.CorpusStatistics, error)
}

// KeyValueStorage stores small configuration values such as API keys
type KeyValueStorage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// StorageManager aggregates the storage interfaces
type StorageManager interface {
	ChunkStorage() ChunkStorage
	StatsStorage() StatsStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
