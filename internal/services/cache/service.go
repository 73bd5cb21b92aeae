// Package cache provides an in-process TTL cache for idempotent lookups
// such as query analyses. Entries are lost on restart by design.
package cache

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Service is a TTL map guarded by a RWMutex. A janitor goroutine sweeps
// expired entries so the map does not grow unbounded between reads.
type Service struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  arbor.ILogger
	stop    chan struct{}
	once    sync.Once
}

var _ interfaces.CacheService = (*Service)(nil)

func NewService(janitorInterval time.Duration, logger arbor.ILogger) *Service {
	s := &Service{
		entries: make(map[string]entry),
		logger:  logger,
		stop:    make(chan struct{}),
	}

	if janitorInterval > 0 {
		go s.janitor(janitorInterval)
	}
	return s
}

func (s *Service) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value. A ttl <= 0 means the entry never expires.
func (s *Service) Set(key string, value interface{}, ttl time.Duration) {
	expiresAt := time.Now().Add(ttl)
	if ttl <= 0 {
		expiresAt = time.Now().Add(100 * 365 * 24 * time.Hour)
	}

	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: expiresAt}
	s.mu.Unlock()
}

func (s *Service) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the janitor goroutine
func (s *Service) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Service) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Service) sweep() {
	now := time.Now()
	s.mu.Lock()
	removed := 0
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Expired cache entries swept")
	}
}
