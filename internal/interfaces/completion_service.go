package interfaces

import "context"

// CompletionRequest is a provider-agnostic chat-completion request
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string // empty selects the configured default provider/model
	Temperature float32
	MaxTokens   int
}

// CompletionService generates text from a prompt. Implementations enforce
// client-side timeouts via the context; callers own fallback behavior.
type CompletionService interface {
	Complete(ctx context.Context, req *CompletionRequest) (string, error)

	// HealthCheck verifies the provider can handle requests
	HealthCheck(ctx context.Context) error

	// Close releases provider clients
	Close() error
}
