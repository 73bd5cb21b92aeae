package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

type recordingChunks struct {
	interfaces.ChunkStorage
	saved []*models.DocumentChunk
}

func (r *recordingChunks) SaveChunks(chunks []*models.DocumentChunk) error {
	r.saved = append(r.saved, chunks...)
	return nil
}

type batchEmbedder struct {
	err   error
	dim   int
	calls int
}

func (b *batchEmbedder) Embed(ctx context.Context, text string, taskType interfaces.EmbeddingTaskType) ([]float32, error) {
	if b.err != nil {
		return nil, b.err
	}
	return make([]float32, b.dim), nil
}

func (b *batchEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType interfaces.EmbeddingTaskType) ([][]float32, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, b.dim)
	}
	return out, nil
}

func (b *batchEmbedder) ModelName() string { return "mock-embedding" }

func (b *batchEmbedder) Dimension() int { return b.dim }

func (b *batchEmbedder) IsAvailable(ctx context.Context) bool { return b.err == nil }

func writeSeed(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing seed file: %v", err)
	}
	return path
}

const validSeed = `documents:
  - id: doc-pricing
    source: pricing-guide
    chunks:
      - chunk_index: 0
        text: Workstream Professional costs $1,299 per month.
        primary_category: pricing
        is_authoritative: true
      - chunk_index: 1
        text: Annual billing saves two months.
        primary_category: pricing
`

func TestLoadFile_Valid(t *testing.T) {
	dir := t.TempDir()
	path := writeSeed(t, dir, "pricing.yaml", validSeed)

	store := &recordingChunks{}
	embedder := &batchEmbedder{dim: 4}
	loader := NewLoader(store, embedder, arbor.NewLogger())

	count, err := loader.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if count != 2 {
		t.Errorf("loaded %d chunks, want 2", count)
	}
	if len(store.saved) != 2 {
		t.Fatalf("stored %d chunks, want 2", len(store.saved))
	}
	if store.saved[0].ID == "" {
		t.Error("chunk without an explicit id must get a generated one")
	}
	if store.saved[0].OriginalText != store.saved[0].Text {
		t.Error("missing original_text must default to the chunk text")
	}
	if len(store.saved[0].Embedding) != 4 {
		t.Errorf("embedding length = %d, want 4", len(store.saved[0].Embedding))
	}
}

func TestLoadFile_DuplicateChunkIndexRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeSeed(t, dir, "dup.yaml", `documents:
  - id: doc-1
    source: guide
    chunks:
      - chunk_index: 0
        text: first
      - chunk_index: 0
        text: second
`)

	store := &recordingChunks{}
	loader := NewLoader(store, nil, arbor.NewLogger())

	if _, err := loader.LoadFile(context.Background(), path); err == nil {
		t.Fatal("duplicate chunk index must reject the file")
	}
	if len(store.saved) != 0 {
		t.Error("rejected file must not store any chunks")
	}
}

func TestLoadFile_AuthoritativeDeprecatedRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeSeed(t, dir, "conflict.yaml", `documents:
  - id: doc-1
    source: guide
    chunks:
      - chunk_index: 0
        text: conflicted
        is_authoritative: true
        is_deprecated: true
`)

	loader := NewLoader(&recordingChunks{}, nil, arbor.NewLogger())

	if _, err := loader.LoadFile(context.Background(), path); err == nil {
		t.Fatal("authoritative and deprecated are mutually exclusive")
	}
}

func TestLoadFile_EmbeddingFailureIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	path := writeSeed(t, dir, "pricing.yaml", validSeed)

	store := &recordingChunks{}
	embedder := &batchEmbedder{dim: 4, err: errors.New("provider unreachable")}
	loader := NewLoader(store, embedder, arbor.NewLogger())

	count, err := loader.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v, embedding failure must be non-fatal", err)
	}
	if count != 2 {
		t.Errorf("loaded %d chunks, want 2", count)
	}
	for _, chunk := range store.saved {
		if len(chunk.Embedding) != 0 {
			t.Error("chunks must store without vectors when embedding fails")
		}
	}
}

func TestLoadDir_SkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "a-valid.yaml", validSeed)
	writeSeed(t, dir, "b-broken.yaml", "documents: [\n")
	writeSeed(t, dir, "c-ignored.txt", "not yaml")

	store := &recordingChunks{}
	loader := NewLoader(store, nil, arbor.NewLogger())

	count, err := loader.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if count != 2 {
		t.Errorf("loaded %d chunks, want 2 from the valid file only", count)
	}
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	loader := NewLoader(&recordingChunks{}, nil, arbor.NewLogger())

	if _, err := loader.LoadDir(context.Background(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("missing corpus directory must error")
	}
}
