package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/services/answer"
	"github.com/ternarybob/respondeo/internal/services/cache"
	"github.com/ternarybob/respondeo/internal/services/corpus"
	"github.com/ternarybob/respondeo/internal/services/embeddings"
	"github.com/ternarybob/respondeo/internal/services/index"
	"github.com/ternarybob/respondeo/internal/services/llm"
	"github.com/ternarybob/respondeo/internal/services/metrics"
	"github.com/ternarybob/respondeo/internal/services/query"
	"github.com/ternarybob/respondeo/internal/services/rerank"
	"github.com/ternarybob/respondeo/internal/services/retrieval"
	"github.com/ternarybob/respondeo/internal/services/search"
	"github.com/ternarybob/respondeo/internal/storage"
)

// App holds all application components and dependencies. Everything is
// constructed explicitly here so tests can wire substitutes at any seam.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Storage interfaces.StorageManager

	Cache        *cache.Service
	Metrics      interfaces.MetricsRecorder
	Completion   interfaces.CompletionService
	Embedder     interfaces.EmbeddingService
	StatsBuilder *index.StatsBuilder

	RetrievalService interfaces.RetrievalService
	CorpusLoader     *corpus.Loader
}

// New constructs the application from config, wiring the full pipeline:
// storage, statistics, LLM providers, and the retrieval services.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Storage = storageManager

	a.Cache = cache.NewService(common.Duration(cfg.Cache.JanitorInterval, time.Minute), logger)
	a.Metrics = metrics.NewRecorder(0, logger)

	a.Completion = llm.NewProviderFactory(
		&cfg.Gemini, &cfg.Claude, &cfg.LLM,
		storageManager.KeyValueStorage(), logger)

	a.Embedder = embeddings.NewService(
		&cfg.Embedding, cfg.Gemini.APIKey,
		storageManager.KeyValueStorage(), logger)

	a.StatsBuilder = index.NewStatsBuilder(
		storageManager.ChunkStorage(), storageManager.StatsStorage(), logger, cfg)
	if err := a.StatsBuilder.Load(); err != nil {
		return nil, err
	}

	backend := search.NewLocalBackend(storageManager.ChunkStorage(), a.StatsBuilder, logger)
	hybrid := search.NewHybridService(a.Embedder, backend, a.Metrics, logger, cfg)

	analyzer := query.NewAnalyzer(a.Cache, logger, cfg)
	expander := query.NewExpander(a.Completion, logger, cfg)
	reranker := rerank.NewService(a.Completion, a.Metrics, logger, cfg)
	assembler := answer.NewContextAssembler(a.Completion, logger, cfg)
	generator := answer.NewGenerator(a.Completion, assembler, a.Metrics, logger, cfg)

	a.RetrievalService = retrieval.NewService(
		analyzer, expander, hybrid, reranker, generator, a.Metrics, logger)

	a.CorpusLoader = corpus.NewLoader(storageManager.ChunkStorage(), a.Embedder, logger)

	logger.Info().Msg("Application initialized")
	return a, nil
}

// Startup runs post-construction work: corpus loading, the initial
// statistics build, and the rebuild scheduler.
func (a *App) Startup(ctx context.Context) error {
	if a.Config.Corpus.LoadOnStartup && a.Config.Corpus.Dir != "" {
		if _, err := a.CorpusLoader.LoadDir(ctx, a.Config.Corpus.Dir); err != nil {
			a.Logger.Warn().Err(err).Msg("Corpus load failed, continuing with stored chunks")
		}
	}

	if a.Config.Stats.RebuildOnStartup || a.StatsBuilder.Current().Empty() {
		if err := a.StatsBuilder.Rebuild(); err != nil {
			a.Logger.Warn().Err(err).Msg("Initial statistics rebuild failed")
		}
	}

	if err := a.StatsBuilder.StartScheduler(); err != nil {
		return fmt.Errorf("failed to start statistics scheduler: %w", err)
	}
	return nil
}

// Close releases all resources in reverse dependency order
func (a *App) Close() error {
	a.StatsBuilder.StopScheduler()
	a.Cache.Close()

	if err := a.Completion.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close completion providers")
	}
	if err := a.Storage.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
