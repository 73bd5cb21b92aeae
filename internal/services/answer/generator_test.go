package answer

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// mockCompletion is a scriptable CompletionService shared across the
// package tests. Latency is honored but cancellable via the context.
type mockCompletion struct {
	mu      sync.Mutex
	reply   string
	err     error
	latency time.Duration

	calls   int
	prompts []string
	systems []string
}

func (m *mockCompletion) Complete(ctx context.Context, req *interfaces.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, req.Prompt)
	m.systems = append(m.systems, req.System)
	latency, reply, err := m.latency, m.reply, m.err
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, err
}

func (m *mockCompletion) HealthCheck(ctx context.Context) error { return nil }

func (m *mockCompletion) Close() error { return nil }

func (m *mockCompletion) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type noopMetrics struct{}

func (noopMetrics) Record(component, operation string, duration time.Duration, success bool, errKind string) {
}

func (noopMetrics) Recent(limit int) []models.PerformanceMetric { return nil }

func newTestGenerator(completion interfaces.CompletionService, cfg *common.Config) *Generator {
	logger := arbor.NewLogger()
	assembler := NewContextAssembler(completion, logger, cfg)
	return NewGenerator(completion, assembler, noopMetrics{}, logger, cfg)
}

func pricingCandidates() []models.ScoredCandidate {
	return []models.ScoredCandidate{
		{
			Chunk: &models.DocumentChunk{
				ID:         "chunk-1",
				DocumentID: "doc-1",
				Text:       "Workstream Professional costs $1,299/month billed annually.",
				Metadata:   models.ChunkMetadata{Source: "pricing-guide", PrimaryCategory: "pricing", IsAuthoritative: true},
			},
			CombinedScore: 0.9,
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	completion := &mockCompletion{reply: "Workstream Professional costs $1,299/month [1]."}
	generator := newTestGenerator(completion, common.DefaultConfig())

	answer := generator.Generate(context.Background(), "how much is Workstream Professional?", nil, pricingCandidates())

	if answer.Degraded {
		t.Error("successful generation must not be degraded")
	}
	if !strings.Contains(answer.Text, "$1,299") {
		t.Errorf("answer text = %q, want the completion reply", answer.Text)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].ChunkID != "chunk-1" {
		t.Errorf("sources = %+v, want the single candidate", answer.Sources)
	}
	if answer.Model == "" {
		t.Error("answer model not set")
	}
}

func TestGenerate_EmptyCandidatesReturnsNoInformation(t *testing.T) {
	completion := &mockCompletion{reply: "should not be called"}
	generator := newTestGenerator(completion, common.DefaultConfig())

	answer := generator.Generate(context.Background(), "what is the pricing?", nil, nil)

	if answer.Text != noInformationMessage {
		t.Errorf("answer text = %q, want the no-information message", answer.Text)
	}
	if completion.callCount() != 0 {
		t.Errorf("completion called %d times for empty candidates", completion.callCount())
	}
}

func TestGenerate_OverallTimeoutReturnsFallbackFast(t *testing.T) {
	completion := &mockCompletion{reply: "too late", latency: 5 * time.Second}
	cfg := common.DefaultConfig()
	cfg.Answer.Timeout = "50ms"

	generator := newTestGenerator(completion, cfg)

	start := time.Now()
	answer := generator.Generate(context.Background(), "how much is it?", nil, pricingCandidates())
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Errorf("timed-out generation took %v, want well under the mocked 5s latency", elapsed)
	}
	if answer.Text != timeoutMessage {
		t.Errorf("answer text = %q, want the timeout message", answer.Text)
	}
	if !answer.Degraded {
		t.Error("timed-out answer must be marked degraded")
	}
	if len(answer.Sources) != 1 {
		t.Errorf("timed-out answer lost its sources: %+v", answer.Sources)
	}
}

func TestGenerate_FailureAfterRetriesReturnsFallback(t *testing.T) {
	completion := &mockCompletion{err: context.DeadlineExceeded}
	cfg := common.DefaultConfig()
	cfg.Answer.MaxAttempts = 1

	generator := newTestGenerator(completion, cfg)

	answer := generator.Generate(context.Background(), "how much is it?", nil, pricingCandidates())

	if answer.Text != failureMessage && answer.Text != timeoutMessage {
		t.Errorf("answer text = %q, want a degraded fallback message", answer.Text)
	}
	if !answer.Degraded {
		t.Error("failed generation must be marked degraded")
	}
	if completion.callCount() != 1 {
		t.Errorf("completion called %d times, want exactly MaxAttempts=1", completion.callCount())
	}
}

func TestGenerate_ConversationalShortCircuit(t *testing.T) {
	completion := &mockCompletion{reply: "Hello! How can I help?"}
	generator := newTestGenerator(completion, common.DefaultConfig())

	analysis := &models.QueryAnalysis{Type: models.QueryTypeConversational, ShortCircuit: true}
	answer := generator.Generate(context.Background(), "hi", analysis, nil)

	if !answer.Conversational {
		t.Error("short-circuited query must produce a conversational answer")
	}
	if len(answer.Sources) != 0 {
		t.Errorf("conversational answer carries sources: %+v", answer.Sources)
	}
	if answer.Text != "Hello! How can I help?" {
		t.Errorf("answer text = %q, want the completion reply", answer.Text)
	}
}

func TestGenerate_ConversationalFallsBackOnProviderFailure(t *testing.T) {
	completion := &mockCompletion{err: context.DeadlineExceeded}
	generator := newTestGenerator(completion, common.DefaultConfig())

	analysis := &models.QueryAnalysis{Type: models.QueryTypeConversational, ShortCircuit: true}
	answer := generator.Generate(context.Background(), "hi", analysis, nil)

	if answer.Text != conversationalFallback {
		t.Errorf("answer text = %q, want the canned conversational fallback", answer.Text)
	}
}

func TestGenerate_PromptCarriesContextAndQuestion(t *testing.T) {
	completion := &mockCompletion{reply: "answer"}
	generator := newTestGenerator(completion, common.DefaultConfig())

	generator.Generate(context.Background(), "how much is Workstream Professional?", nil, pricingCandidates())

	if completion.callCount() != 1 {
		t.Fatalf("completion called %d times, want 1", completion.callCount())
	}
	prompt := completion.prompts[0]
	if !strings.Contains(prompt, "$1,299/month") {
		t.Errorf("prompt missing source text:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Question: how much is Workstream Professional?") {
		t.Errorf("prompt missing question:\n%s", prompt)
	}
	if completion.systems[0] != answerSystemPrompt {
		t.Error("answer generation must use the grounded-answer system prompt")
	}
}
