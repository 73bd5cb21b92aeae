package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

// Manager owns the Badger connection and hands out the storage interfaces
type Manager struct {
	db     *BadgerDB
	chunks interfaces.ChunkStorage
	stats  interfaces.StatsStorage
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

var _ interfaces.StorageManager = (*Manager)(nil)

func NewManager(logger arbor.ILogger, config *common.Config) (*Manager, error) {
	db, err := NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	manager := &Manager{
		db:     db,
		chunks: NewChunkStorage(db, logger),
		stats:  NewStatsStorage(db, logger),
		kv:     NewKVStorage(db, logger),
		logger: logger,
	}

	logger.Info().
		Str("path", config.Storage.Badger.Path).
		Msg("Badger storage manager initialized")

	return manager, nil
}

func (m *Manager) ChunkStorage() interfaces.ChunkStorage {
	return m.chunks
}

func (m *Manager) StatsStorage() interfaces.StatsStorage {
	return m.stats
}

func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

func (m *Manager) Close() error {
	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	m.logger.Info().Msg("Badger storage manager closed")
	return nil
}
