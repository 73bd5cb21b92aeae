package embeddings

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"google.golang.org/genai"
)

// Service generates embeddings with the Gemini embedding API. Task types
// separate query embeddings from document embeddings; the provider weights
// them differently even though the vectors share one space.
type Service struct {
	config    *common.EmbeddingConfig
	apiKey    string
	kvStorage interfaces.KeyValueStorage
	logger    arbor.ILogger
	policy    common.RetryPolicy

	mu     sync.Mutex
	client *genai.Client
}

var _ interfaces.EmbeddingService = (*Service)(nil)

func NewService(config *common.EmbeddingConfig, apiKey string, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:    config,
		apiKey:    apiKey,
		kvStorage: kvStorage,
		logger:    logger,
		policy:    common.DefaultRetryPolicy(),
	}
}

func (s *Service) Embed(ctx context.Context, text string, taskType interfaces.EmbeddingTaskType) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	vectors, err := s.EmbedBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *Service) EmbedBatch(ctx context.Context, texts []string, taskType interfaces.EmbeddingTaskType) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	batchSize := s.config.BatchSize
	if batchSize <= 0 {
		batchSize = 16
	}

	outputDim := int32(s.Dimension())
	config := &genai.EmbedContentConfig{
		TaskType:             string(taskType),
		OutputDimensionality: &outputDim,
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		var result *genai.EmbedContentResponse
		err := s.policy.Retry(ctx, func(ctx context.Context) error {
			var callErr error
			result, callErr = client.Models.EmbedContent(ctx, s.ModelName(), contents, config)
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("embedding generation failed: %w", err)
		}
		if result == nil || len(result.Embeddings) != end-start {
			return nil, fmt.Errorf("embedding batch returned %d vectors, expected %d",
				embeddingCount(result), end-start)
		}

		for _, embedding := range result.Embeddings {
			if len(embedding.Values) != s.Dimension() {
				return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d",
					s.Dimension(), len(embedding.Values))
			}
			vectors = append(vectors, embedding.Values)
		}
	}

	s.logger.Debug().
		Int("texts", len(texts)).
		Str("task_type", string(taskType)).
		Msg("Embeddings generated")
	return vectors, nil
}

func (s *Service) ModelName() string {
	if s.config.Model != "" {
		return s.config.Model
	}
	return "gemini-embedding-001"
}

func (s *Service) Dimension() int {
	if s.config.Dimension > 0 {
		return s.config.Dimension
	}
	return 768
}

func (s *Service) IsAvailable(ctx context.Context) bool {
	_, err := s.Embed(ctx, "ping", interfaces.TaskTypeQuery)
	return err == nil
}

func (s *Service) getClient(ctx context.Context) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	apiKey := s.apiKey
	if s.kvStorage != nil {
		if stored, err := s.kvStorage.Get("gemini_api_key"); err == nil && stored != "" {
			apiKey = stored
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no Gemini API key configured for embeddings")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	s.client = client
	return client, nil
}

func embeddingCount(result *genai.EmbedContentResponse) int {
	if result == nil {
		return 0
	}
	return len(result.Embeddings)
}
