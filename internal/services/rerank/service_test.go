package rerank

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

type scriptedCompletion struct {
	reply   string
	err     error
	latency time.Duration
}

func (s *scriptedCompletion) Complete(ctx context.Context, req *interfaces.CompletionRequest) (string, error) {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.reply, s.err
}

func (s *scriptedCompletion) HealthCheck(ctx context.Context) error { return nil }

func (s *scriptedCompletion) Close() error { return nil }

type noopMetrics struct{}

func (noopMetrics) Record(component, operation string, duration time.Duration, success bool, errKind string) {
}

func (noopMetrics) Recent(limit int) []models.PerformanceMetric { return nil }

func rankedCandidates(n int) []models.ScoredCandidate {
	candidates := make([]models.ScoredCandidate, n)
	for i := range candidates {
		candidates[i] = models.ScoredCandidate{
			Chunk:         &models.DocumentChunk{ID: fmt.Sprintf("chunk-%d", i), Text: fmt.Sprintf("excerpt %d", i)},
			CombinedScore: float64(n - i),
		}
	}
	return candidates
}

func rerankConfig() *common.Config {
	cfg := common.DefaultConfig()
	cfg.Rerank.Enabled = true
	return cfg
}

func newTestService(completion interfaces.CompletionService, cfg *common.Config) *Service {
	return NewService(completion, noopMetrics{}, arbor.NewLogger(), cfg)
}

func TestRerank_ReordersByScores(t *testing.T) {
	// The model rates the last excerpt highest.
	completion := &scriptedCompletion{reply: `[{"index":1,"score":2},{"index":2,"score":5},{"index":3,"score":9}]`}
	service := newTestService(completion, rerankConfig())

	reordered := service.Rerank(context.Background(), "query", rankedCandidates(3))

	if len(reordered) != 3 {
		t.Fatalf("got %d candidates, want 3", len(reordered))
	}
	if reordered[0].Chunk.ID != "chunk-2" {
		t.Errorf("top candidate = %s, want the highest-scored chunk-2", reordered[0].Chunk.ID)
	}
}

func TestRerank_ProviderFailurePreservesOrder(t *testing.T) {
	completion := &scriptedCompletion{err: errors.New("provider unavailable")}
	service := newTestService(completion, rerankConfig())

	original := rankedCandidates(4)
	reordered := service.Rerank(context.Background(), "query", original)

	for i := range reordered {
		if reordered[i].Chunk.ID != original[i].Chunk.ID {
			t.Fatalf("order changed at %d after provider failure: %s", i, reordered[i].Chunk.ID)
		}
	}
}

func TestRerank_TimeoutPreservesOrder(t *testing.T) {
	completion := &scriptedCompletion{reply: `[{"index":1,"score":1}]`, latency: 2 * time.Second}
	cfg := rerankConfig()
	cfg.Rerank.Timeout = "30ms"
	service := newTestService(completion, cfg)

	original := rankedCandidates(3)
	start := time.Now()
	reordered := service.Rerank(context.Background(), "query", original)
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Errorf("rerank took %v past its 30ms budget", elapsed)
	}
	for i := range reordered {
		if reordered[i].Chunk.ID != original[i].Chunk.ID {
			t.Fatalf("order changed at %d after timeout", i)
		}
	}
}

func TestRerank_DisabledTruncatesOnly(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.Rerank.Enabled = false
	cfg.Rerank.ReturnM = 2
	service := newTestService(&scriptedCompletion{reply: "unused"}, cfg)

	reordered := service.Rerank(context.Background(), "query", rankedCandidates(5))

	if len(reordered) != 2 {
		t.Fatalf("got %d candidates, want ReturnM=2", len(reordered))
	}
	if reordered[0].Chunk.ID != "chunk-0" || reordered[1].Chunk.ID != "chunk-1" {
		t.Error("disabled rerank must keep the original top candidates")
	}
}

func TestRerank_TruncatesToCandidateNAndReturnM(t *testing.T) {
	completion := &scriptedCompletion{reply: `[{"index":1,"score":5},{"index":2,"score":4},{"index":3,"score":3}]`}
	cfg := rerankConfig()
	cfg.Rerank.CandidateN = 3
	cfg.Rerank.ReturnM = 2
	service := newTestService(completion, cfg)

	reordered := service.Rerank(context.Background(), "query", rankedCandidates(10))

	if len(reordered) != 2 {
		t.Fatalf("got %d candidates, want ReturnM=2", len(reordered))
	}
}

func TestParseBatchScores(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr bool
		want    map[int]float64
	}{
		{
			name:  "bare array",
			reply: `[{"index":1,"score":7},{"index":2,"score":3}]`,
			want:  map[int]float64{0: 7, 1: 3},
		},
		{
			name:  "code fence",
			reply: "```json\n[{\"index\":1,\"score\":7}]\n```",
			want:  map[int]float64{0: 7},
		},
		{
			name:  "prose wrapped",
			reply: `Here are the ratings: [{"index":1,"score":6}] as requested.`,
			want:  map[int]float64{0: 6},
		},
		{
			name:  "out of range indexes skipped",
			reply: `[{"index":0,"score":9},{"index":5,"score":9},{"index":2,"score":4}]`,
			want:  map[int]float64{1: 4},
		},
		{
			name:    "no array",
			reply:   "I cannot rate these excerpts.",
			wantErr: true,
		},
		{
			name:    "malformed json",
			reply:   `[{"index": "one"}]`,
			wantErr: true,
		},
		{
			name:    "only unusable indexes",
			reply:   `[{"index":99,"score":9}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBatchScores(tt.reply, 2)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseBatchScores() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for idx, score := range tt.want {
				if got[idx] != score {
					t.Errorf("score[%d] = %v, want %v", idx, got[idx], score)
				}
			}
		})
	}
}

func TestRerank_SingleCandidatePassthrough(t *testing.T) {
	completion := &scriptedCompletion{err: errors.New("must not be called")}
	service := newTestService(completion, rerankConfig())

	reordered := service.Rerank(context.Background(), "query", rankedCandidates(1))
	if len(reordered) != 1 {
		t.Fatalf("got %d candidates, want 1", len(reordered))
	}
}
