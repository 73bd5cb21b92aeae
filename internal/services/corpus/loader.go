// Package corpus loads seed documents from YAML files into chunk storage
// and embeds them for vector search.
package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML shape of one corpus file: a list of documents,
// each carrying its chunks.
type seedFile struct {
	Documents []seedDocument `yaml:"documents"`
}

type seedDocument struct {
	ID     string      `yaml:"id"`
	Source string      `yaml:"source"`
	Chunks []seedChunk `yaml:"chunks"`
}

type seedChunk struct {
	ID                  string     `yaml:"id"`
	ChunkIndex          int        `yaml:"chunk_index"`
	Text                string     `yaml:"text"`
	OriginalText        string     `yaml:"original_text"`
	PrimaryCategory     string     `yaml:"primary_category"`
	SecondaryCategories []string   `yaml:"secondary_categories"`
	TechnicalLevel      int        `yaml:"technical_level"`
	Entities            []string   `yaml:"entities"`
	TechnicalFeatures   []string   `yaml:"technical_features"`
	PainPoints          []string   `yaml:"pain_points"`
	IsAuthoritative     bool       `yaml:"is_authoritative"`
	IsDeprecated        bool       `yaml:"is_deprecated"`
	LastUpdated         *time.Time `yaml:"last_updated"`
}

// Loader reads seed YAML files, validates chunk invariants, embeds chunk
// text, and persists the result. Embedding failure is non-fatal; chunks
// are stored without vectors and served by the keyword path.
type Loader struct {
	chunks   interfaces.ChunkStorage
	embedder interfaces.EmbeddingService
	logger   arbor.ILogger
}

func NewLoader(chunks interfaces.ChunkStorage, embedder interfaces.EmbeddingService, logger arbor.ILogger) *Loader {
	return &Loader{
		chunks:   chunks,
		embedder: embedder,
		logger:   logger,
	}
}

// LoadDir loads every .yaml/.yml file in dir. Returns the number of chunks
// stored. A file that fails validation is skipped with an error log; other
// files still load.
func (l *Loader) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	total := 0
	for _, file := range files {
		count, err := l.LoadFile(ctx, file)
		if err != nil {
			l.logger.Error().
				Err(err).
				Str("file", file).
				Msg("Corpus file skipped")
			continue
		}
		total += count
	}

	l.logger.Info().
		Int("files", len(files)).
		Int("chunks", total).
		Msg("Corpus loaded")
	return total, nil
}

// LoadFile loads a single seed file. The whole file is rejected when any
// document violates chunk invariants, so partial documents never land.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var chunks []*models.DocumentChunk
	for _, doc := range seed.Documents {
		docChunks, err := l.buildChunks(&doc)
		if err != nil {
			return 0, fmt.Errorf("invalid document %s in %s: %w", doc.ID, path, err)
		}
		chunks = append(chunks, docChunks...)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	l.embedChunks(ctx, chunks)

	if err := l.chunks.SaveChunks(chunks); err != nil {
		return 0, fmt.Errorf("failed to save chunks from %s: %w", path, err)
	}
	return len(chunks), nil
}

// buildChunks converts one seed document, enforcing chunk invariants:
// unique chunk indexes within the document and mutually exclusive
// authoritative/deprecated flags.
func (l *Loader) buildChunks(doc *seedDocument) ([]*models.DocumentChunk, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("document id is required")
	}
	if len(doc.Chunks) == 0 {
		return nil, fmt.Errorf("document has no chunks")
	}

	seenIndex := make(map[int]bool, len(doc.Chunks))
	chunks := make([]*models.DocumentChunk, 0, len(doc.Chunks))

	for i := range doc.Chunks {
		seed := &doc.Chunks[i]

		if seenIndex[seed.ChunkIndex] {
			return nil, fmt.Errorf("duplicate chunk index %d", seed.ChunkIndex)
		}
		seenIndex[seed.ChunkIndex] = true

		if seed.IsAuthoritative && seed.IsDeprecated {
			return nil, fmt.Errorf("chunk %d is both authoritative and deprecated", seed.ChunkIndex)
		}

		id := seed.ID
		if id == "" {
			id = uuid.New().String()
		}

		chunk := &models.DocumentChunk{
			ID:           id,
			DocumentID:   doc.ID,
			ChunkIndex:   seed.ChunkIndex,
			Text:         seed.Text,
			OriginalText: seed.OriginalText,
			Metadata: models.ChunkMetadata{
				Source:              doc.Source,
				LastUpdated:         seed.LastUpdated,
				PrimaryCategory:     seed.PrimaryCategory,
				SecondaryCategories: seed.SecondaryCategories,
				TechnicalLevel:      seed.TechnicalLevel,
				Entities:            seed.Entities,
				TechnicalFeatures:   seed.TechnicalFeatures,
				PainPoints:          seed.PainPoints,
				IsAuthoritative:     seed.IsAuthoritative,
				IsDeprecated:        seed.IsDeprecated,
			},
		}
		if chunk.OriginalText == "" {
			chunk.OriginalText = chunk.Text
		}
		if err := chunk.Validate(); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// embedChunks fills embeddings in place. On embedding failure the chunks
// keep empty vectors and remain searchable by keyword only.
func (l *Loader) embedChunks(ctx context.Context, chunks []*models.DocumentChunk) {
	if l.embedder == nil {
		return
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := l.embedder.EmbedBatch(ctx, texts, interfaces.TaskTypeDocument)
	if err != nil {
		l.logger.Warn().
			Err(err).
			Int("chunks", len(chunks)).
			Msg("Chunk embedding failed, storing without vectors")
		return
	}

	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
}
