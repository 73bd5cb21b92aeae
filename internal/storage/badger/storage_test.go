package badger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	cfg := common.DefaultConfig()
	cfg.Storage.Badger.Path = t.TempDir() + "/badger"
	cfg.Storage.Badger.ResetOnStartup = false

	manager, err := NewManager(arbor.NewLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func storedChunk(id, docID string, index int) *models.DocumentChunk {
	return &models.DocumentChunk{
		ID:         id,
		DocumentID: docID,
		ChunkIndex: index,
		Text:       "Workstream Professional costs $1,299 per month.",
		Metadata: models.ChunkMetadata{
			Source:          "pricing-guide",
			PrimaryCategory: "pricing",
		},
	}
}

func TestChunkStorage_SaveAndGet(t *testing.T) {
	store := newTestManager(t).ChunkStorage()

	chunk := storedChunk("chunk-1", "doc-1", 0)
	require.NoError(t, store.SaveChunk(chunk))

	got, err := store.GetChunk("chunk-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.DocumentID)
	assert.Equal(t, chunk.Text, got.Text)
	assert.False(t, got.CreatedAt.IsZero(), "created timestamp should be set on save")
}

func TestChunkStorage_GetMissing(t *testing.T) {
	store := newTestManager(t).ChunkStorage()

	_, err := store.GetChunk("absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk not found")
}

func TestChunkStorage_SaveChunksRejectsDuplicateIndex(t *testing.T) {
	store := newTestManager(t).ChunkStorage()

	err := store.SaveChunks([]*models.DocumentChunk{
		storedChunk("chunk-1", "doc-1", 0),
		storedChunk("chunk-2", "doc-1", 0),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate chunk index")

	count, err := store.CountChunks()
	require.NoError(t, err)
	assert.Equal(t, 0, count, "rejected batch must not persist anything")
}

func TestChunkStorage_SameIndexDifferentDocuments(t *testing.T) {
	store := newTestManager(t).ChunkStorage()

	err := store.SaveChunks([]*models.DocumentChunk{
		storedChunk("chunk-1", "doc-1", 0),
		storedChunk("chunk-2", "doc-2", 0),
	})
	require.NoError(t, err)

	count, err := store.CountChunks()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestChunkStorage_ListByDocument(t *testing.T) {
	store := newTestManager(t).ChunkStorage()

	require.NoError(t, store.SaveChunks([]*models.DocumentChunk{
		storedChunk("chunk-1", "doc-1", 0),
		storedChunk("chunk-2", "doc-1", 1),
		storedChunk("chunk-3", "doc-2", 0),
	}))

	chunks, err := store.ListChunks(&interfaces.ListOptions{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestChunkStorage_ForEachAndDelete(t *testing.T) {
	store := newTestManager(t).ChunkStorage()

	require.NoError(t, store.SaveChunk(storedChunk("chunk-1", "doc-1", 0)))
	require.NoError(t, store.SaveChunk(storedChunk("chunk-2", "doc-1", 1)))

	visited := 0
	require.NoError(t, store.ForEachChunk(func(chunk *models.DocumentChunk) error {
		visited++
		return nil
	}))
	assert.Equal(t, 2, visited)

	require.NoError(t, store.DeleteChunk("chunk-1"))
	count, err := store.CountChunks()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStatsStorage_RoundTrip(t *testing.T) {
	store := newTestManager(t).StatsStorage()

	loaded, err := store.LoadStatistics()
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing statistics load as nil, not an error")

	stats := models.NewCorpusStatistics()
	stats.TotalDocuments = 42
	stats.AverageDocumentLength = 17.5
	stats.DocumentFrequency["pricing"] = 12
	stats.TermFrequency["pricing"] = 30
	stats.BuiltAt = time.Now()

	require.NoError(t, store.SaveStatistics(stats))

	loaded, err = store.LoadStatistics()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 42, loaded.TotalDocuments)
	assert.Equal(t, 12, loaded.DocumentFrequency["pricing"])
}

func TestKVStorage(t *testing.T) {
	store := newTestManager(t).KeyValueStorage()

	value, err := store.Get("absent")
	require.NoError(t, err)
	assert.Empty(t, value, "missing keys read back empty, not as an error")

	require.NoError(t, store.Set("gemini_api_key", "test-key"))

	value, err = store.Get("gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "test-key", value)

	require.NoError(t, store.Set("gemini_api_key", "rotated"))
	value, err = store.Get("gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "rotated", value)

	require.NoError(t, store.Delete("gemini_api_key"))
	value, err = store.Get("gemini_api_key")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.Delete("absent"), "deleting a missing key is a no-op")
}
