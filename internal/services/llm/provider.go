package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ProviderType identifies a chat-completion provider
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderClaude ProviderType = "claude"
)

// ProviderFactory routes completion requests to Gemini or Claude based on
// the model name, sharing lazily created clients, a client-side rate
// limiter, and one retry policy across all callers.
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	llmConfig    *common.LLMConfig
	kvStorage    interfaces.KeyValueStorage
	logger       arbor.ILogger

	limiter *rate.Limiter
	policy  common.RetryPolicy

	mu           sync.Mutex
	geminiClient *genai.Client
	claudeClient anthropic.Client
	claudeReady  bool
}

var _ interfaces.CompletionService = (*ProviderFactory)(nil)

func NewProviderFactory(geminiConfig *common.GeminiConfig, claudeConfig *common.ClaudeConfig, llmConfig *common.LLMConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *ProviderFactory {
	ratePerSecond := llmConfig.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = 2
	}
	burst := llmConfig.RateBurst
	if burst <= 0 {
		burst = 4
	}

	return &ProviderFactory{
		geminiConfig: geminiConfig,
		claudeConfig: claudeConfig,
		llmConfig:    llmConfig,
		kvStorage:    kvStorage,
		logger:       logger,
		limiter:      rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		policy:       common.DefaultRetryPolicy(),
	}
}

// DetectProvider determines the provider from a model string. Explicit
// prefixes ("claude/", "gemini/") win over model-name patterns; an empty
// model selects the configured default provider.
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	if model == "" {
		if f.llmConfig.DefaultProvider == string(ProviderClaude) {
			return ProviderClaude
		}
		return ProviderGemini
	}

	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "claude/"), strings.HasPrefix(model, "anthropic/"), strings.HasPrefix(model, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(model, "gemini/"), strings.HasPrefix(model, "google/"), strings.HasPrefix(model, "gemini-"):
		return ProviderGemini
	}

	if f.llmConfig.DefaultProvider == string(ProviderClaude) {
		return ProviderClaude
	}
	return ProviderGemini
}

// NormalizeModel strips a provider prefix from the model name
func (f *ProviderFactory) NormalizeModel(model string) string {
	for _, prefix := range []string{"claude/", "anthropic/", "gemini/", "google/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// Complete generates text for a request, routed to the detected provider.
// Calls wait on the shared rate limiter and retry under the shared policy.
func (f *ProviderFactory) Complete(ctx context.Context, req *interfaces.CompletionRequest) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	provider := f.DetectProvider(req.Model)
	model := f.NormalizeModel(req.Model)

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Msg("Generating completion")

	var text string
	err := f.policy.Retry(ctx, func(ctx context.Context) error {
		var callErr error
		switch provider {
		case ProviderClaude:
			text, callErr = f.completeClaude(ctx, req, model)
		default:
			text, callErr = f.completeGemini(ctx, req, model)
		}
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", provider, err)
	}
	return text, nil
}

func (f *ProviderFactory) completeGemini(ctx context.Context, req *interfaces.CompletionRequest, model string) (string, error) {
	client, err := f.getGeminiClient(ctx)
	if err != nil {
		return "", err
	}

	if model == "" {
		model = f.geminiConfig.Model
	}

	config := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(req.Temperature)
	} else if f.geminiConfig.Temperature > 0 {
		config.Temperature = genai.Ptr(f.geminiConfig.Temperature)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	} else if f.geminiConfig.MaxTokens > 0 {
		config.MaxOutputTokens = int32(f.geminiConfig.MaxTokens)
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return text, nil
}

func (f *ProviderFactory) completeClaude(ctx context.Context, req *interfaces.CompletionRequest, model string) (string, error) {
	client, err := f.getClaudeClient(ctx)
	if err != nil {
		return "", err
	}

	if model == "" {
		model = f.claudeConfig.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = f.claudeConfig.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	} else if f.claudeConfig.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(f.claudeConfig.Temperature))
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}
	return text.String(), nil
}

// HealthCheck runs a minimal completion against the default provider
func (f *ProviderFactory) HealthCheck(ctx context.Context) error {
	_, err := f.Complete(ctx, &interfaces.CompletionRequest{
		Prompt:    "Reply with OK.",
		MaxTokens: 8,
	})
	return err
}

func (f *ProviderFactory) getGeminiClient(ctx context.Context) (*genai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.geminiClient != nil {
		return f.geminiClient, nil
	}

	apiKey, err := f.resolveAPIKey("gemini_api_key", f.geminiConfig.APIKey)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	f.geminiClient = client
	return client, nil
}

func (f *ProviderFactory) getClaudeClient(ctx context.Context) (anthropic.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claudeReady {
		return f.claudeClient, nil
	}

	apiKey, err := f.resolveAPIKey("anthropic_api_key", f.claudeConfig.APIKey)
	if err != nil {
		return anthropic.Client{}, err
	}

	f.claudeClient = anthropic.NewClient(option.WithAPIKey(apiKey))
	f.claudeReady = true
	return f.claudeClient, nil
}

// resolveAPIKey prefers the key stored in KV storage, falling back to the
// config value. Stored keys let operators rotate credentials at runtime.
func (f *ProviderFactory) resolveAPIKey(storageKey, configValue string) (string, error) {
	if f.kvStorage != nil {
		if stored, err := f.kvStorage.Get(storageKey); err == nil && stored != "" {
			return stored, nil
		}
	}
	if configValue != "" {
		return configValue, nil
	}
	return "", fmt.Errorf("no API key configured for %s", storageKey)
}

// Close releases provider clients
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geminiClient = nil
	f.claudeClient = anthropic.Client{}
	f.claudeReady = false
	return nil
}
