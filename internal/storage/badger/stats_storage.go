package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

const statsRecordKey = "corpus-statistics"

// StatsStorage persists the single corpus statistics snapshot
type StatsStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewStatsStorage(db *BadgerDB, logger arbor.ILogger) interfaces.StatsStorage {
	return &StatsStorage{
		db:     db,
		logger: logger,
	}
}

func (s *StatsStorage) SaveStatistics(stats *models.CorpusStatistics) error {
	if err := stats.Validate(); err != nil {
		return fmt.Errorf("invalid corpus statistics: %w", err)
	}

	if err := s.db.Store().Upsert(statsRecordKey, stats); err != nil {
		return fmt.Errorf("failed to save corpus statistics: %w", err)
	}

	s.logger.Debug().
		Int("total_documents", stats.TotalDocuments).
		Int("vocabulary", len(stats.DocumentFrequency)).
		Msg("Corpus statistics saved")
	return nil
}

func (s *StatsStorage) LoadStatistics() (*models.CorpusStatistics, error) {
	var stats models.CorpusStatistics
	if err := s.db.Store().Get(statsRecordKey, &stats); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load corpus statistics: %w", err)
	}
	return &stats, nil
}
