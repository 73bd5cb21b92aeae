package index

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// StatsBuilder rebuilds corpus statistics from chunk storage and holds the
// current snapshot for query-time scoring. Rebuilds swap the snapshot
// atomically, so in-flight queries keep scoring against a consistent view.
type StatsBuilder struct {
	chunks interfaces.ChunkStorage
	store  interfaces.StatsStorage
	logger arbor.ILogger
	config *common.Config

	mu      sync.RWMutex
	current *models.CorpusStatistics

	cron   *cron.Cron
	cronID cron.EntryID

	rebuildMu sync.Mutex
}

func NewStatsBuilder(chunks interfaces.ChunkStorage, store interfaces.StatsStorage, logger arbor.ILogger, config *common.Config) *StatsBuilder {
	return &StatsBuilder{
		chunks:  chunks,
		store:   store,
		logger:  logger,
		config:  config,
		current: models.NewCorpusStatistics(),
	}
}

// Load restores the last persisted statistics snapshot. Missing statistics
// are not an error; the snapshot stays empty until the first rebuild.
func (b *StatsBuilder) Load() error {
	stats, err := b.store.LoadStatistics()
	if err != nil {
		return fmt.Errorf("failed to load persisted statistics: %w", err)
	}
	if stats == nil {
		b.logger.Info().Msg("No persisted corpus statistics found")
		return nil
	}

	if err := stats.Validate(); err != nil {
		b.logger.Warn().Err(err).Msg("Persisted corpus statistics invalid, keeping empty snapshot")
		return nil
	}

	b.mu.Lock()
	b.current = stats
	b.mu.Unlock()

	b.logger.Info().
		Int("total_documents", stats.TotalDocuments).
		Int("vocabulary", len(stats.DocumentFrequency)).
		Msg("Corpus statistics loaded")
	return nil
}

// Rebuild recomputes statistics over every stored chunk. The new snapshot
// replaces the current one only after it validates; a failed rebuild keeps
// the previous snapshot in place.
func (b *StatsBuilder) Rebuild() error {
	b.rebuildMu.Lock()
	defer b.rebuildMu.Unlock()

	start := time.Now()
	stats := models.NewCorpusStatistics()
	var totalLength int

	err := b.chunks.ForEachChunk(func(chunk *models.DocumentChunk) error {
		terms := Tokenize(chunk.Text)
		totalLength += len(terms)
		stats.TotalDocuments++

		seen := make(map[string]bool, len(terms))
		for _, term := range terms {
			stats.TermFrequency[term]++
			if !seen[term] {
				stats.DocumentFrequency[term]++
				seen[term] = true
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("statistics rebuild failed: %w", err)
	}

	if stats.TotalDocuments > 0 {
		stats.AverageDocumentLength = float64(totalLength) / float64(stats.TotalDocuments)
	}
	stats.BuiltAt = time.Now()

	if err := stats.Validate(); err != nil {
		return fmt.Errorf("rebuilt statistics failed validation, keeping previous snapshot: %w", err)
	}

	b.mu.Lock()
	b.current = stats
	b.mu.Unlock()

	if err := b.store.SaveStatistics(stats); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to persist rebuilt statistics")
	}

	b.logger.Info().
		Int("total_documents", stats.TotalDocuments).
		Int("vocabulary", len(stats.DocumentFrequency)).
		Dur("duration", time.Since(start)).
		Msg("Corpus statistics rebuilt")
	return nil
}

// Current returns the active statistics snapshot. The snapshot is read-only
// once published and safe to share across concurrent queries.
func (b *StatsBuilder) Current() *models.CorpusStatistics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Scorer returns a BM25 scorer bound to the current snapshot.
func (b *StatsBuilder) Scorer() *BM25Scorer {
	return NewBM25Scorer(b.Current(), b.config.Search.BM25K1, b.config.Search.BM25B)
}

// StartScheduler registers the periodic rebuild with a seconds-granularity
// cron schedule and starts it.
func (b *StatsBuilder) StartScheduler() error {
	if b.cron != nil {
		return fmt.Errorf("statistics scheduler already running")
	}

	schedule := b.config.Stats.Schedule
	if schedule == "" {
		schedule = "0 0 */6 * * *"
	}

	b.cron = cron.New(cron.WithSeconds())
	id, err := b.cron.AddFunc(schedule, func() {
		if err := b.Rebuild(); err != nil {
			b.logger.Error().Err(err).Msg("Scheduled statistics rebuild failed")
		}
	})
	if err != nil {
		b.cron = nil
		return fmt.Errorf("failed to schedule statistics rebuild: %w", err)
	}
	b.cronID = id
	b.cron.Start()

	b.logger.Info().
		Str("schedule", schedule).
		Msg("Statistics rebuild scheduler started")
	return nil
}

// StopScheduler halts the rebuild scheduler and waits for a running rebuild
// to finish.
func (b *StatsBuilder) StopScheduler() {
	if b.cron == nil {
		return
	}
	ctx := b.cron.Stop()
	<-ctx.Done()
	b.cron = nil
	b.logger.Info().Msg("Statistics rebuild scheduler stopped")
}
