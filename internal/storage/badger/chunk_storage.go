package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ChunkStorage implements interfaces.ChunkStorage for Badger
type ChunkStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChunkStorage creates a new ChunkStorage instance
func NewChunkStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChunkStorage {
	return &ChunkStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ChunkStorage) SaveChunk(chunk *models.DocumentChunk) error {
	if err := chunk.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = now
	}
	chunk.UpdatedAt = now

	if err := s.db.Store().Upsert(chunk.ID, chunk); err != nil {
		return fmt.Errorf("failed to save chunk: %w", err)
	}
	return nil
}

func (s *ChunkStorage) SaveChunks(chunks []*models.DocumentChunk) error {
	// chunkIndex must be unique within each document across the batch
	seen := make(map[string]string, len(chunks))
	for _, chunk := range chunks {
		key := fmt.Sprintf("%s/%d", chunk.DocumentID, chunk.ChunkIndex)
		if prior, dup := seen[key]; dup {
			return fmt.Errorf("duplicate chunk index %d in document %s (chunks %s, %s)",
				chunk.ChunkIndex, chunk.DocumentID, prior, chunk.ID)
		}
		seen[key] = chunk.ID
	}

	for _, chunk := range chunks {
		if err := s.SaveChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChunkStorage) GetChunk(id string) (*models.DocumentChunk, error) {
	var chunk models.DocumentChunk
	if err := s.db.Store().Get(id, &chunk); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("chunk not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return &chunk, nil
}

func (s *ChunkStorage) ListChunks(opts *interfaces.ListOptions) ([]*models.DocumentChunk, error) {
	if opts == nil {
		opts = &interfaces.ListOptions{}
	}

	query := &badgerhold.Query{}
	if opts.DocumentID != "" {
		query = badgerhold.Where("DocumentID").Eq(opts.DocumentID)
	}
	if opts.Offset > 0 {
		query = query.Skip(opts.Offset)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var chunks []models.DocumentChunk
	if err := s.db.Store().Find(&chunks, query); err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	result := make([]*models.DocumentChunk, len(chunks))
	for i := range chunks {
		result[i] = &chunks[i]
	}
	return result, nil
}

func (s *ChunkStorage) CountChunks() (int, error) {
	count, err := s.db.Store().Count(&models.DocumentChunk{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(count), nil
}

func (s *ChunkStorage) ForEachChunk(fn func(chunk *models.DocumentChunk) error) error {
	err := s.db.Store().ForEach(nil, func(chunk *models.DocumentChunk) error {
		return fn(chunk)
	})
	if err != nil {
		return fmt.Errorf("chunk iteration failed: %w", err)
	}
	return nil
}

func (s *ChunkStorage) DeleteChunk(id string) error {
	if err := s.db.Store().Delete(id, &models.DocumentChunk{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("chunk not found: %s", id)
		}
		return fmt.Errorf("failed to delete chunk: %w", err)
	}
	return nil
}
