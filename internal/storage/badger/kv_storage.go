package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

type kvRecord struct {
	Key   string `badgerhold:"key"`
	Value string
}

// KVStorage stores small string values such as API keys and settings.
// Missing keys read back as an empty string, not an error.
type KVStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewKVStorage(db *BadgerDB, logger arbor.ILogger) interfaces.KeyValueStorage {
	return &KVStorage{
		db:     db,
		logger: logger,
	}
}

func (s *KVStorage) Get(key string) (string, error) {
	var record kvRecord
	if err := s.db.Store().Get(key, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return record.Value, nil
}

func (s *KVStorage) Set(key, value string) error {
	record := kvRecord{Key: key, Value: value}
	if err := s.db.Store().Upsert(key, &record); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (s *KVStorage) Delete(key string) error {
	if err := s.db.Store().Delete(key, &kvRecord{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
