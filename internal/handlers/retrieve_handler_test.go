package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/retrieval"
)

// stubRetrieval is a scriptable RetrievalService for handler tests.
type stubRetrieval struct {
	result *models.RetrievalResult
	answer *models.Answer
	err    error
}

func (s *stubRetrieval) Retrieve(ctx context.Context, query string, opts *models.RetrievalOptions) (*models.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, retrieval.ErrEmptyQuery
	}
	return s.result, s.err
}

func (s *stubRetrieval) Answer(ctx context.Context, query string, opts *models.RetrievalOptions) (*models.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, retrieval.ErrEmptyQuery
	}
	return s.answer, s.err
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var resp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return resp.Error.Message, resp.Error.Code
}

func TestRetrieveHandler_Success(t *testing.T) {
	service := &stubRetrieval{
		result: &models.RetrievalResult{
			Candidates: []models.ScoredCandidate{
				{Chunk: &models.DocumentChunk{ID: "c1", DocumentID: "d1", Text: "text"}, CombinedScore: 0.8},
			},
			Analysis: &models.QueryAnalysis{Type: models.QueryTypeFactual, PrimaryCategory: "pricing"},
			Fallback: true,
		},
	}
	handler := NewRetrieveHandler(service, arbor.NewLogger())

	rec := postJSON(t, handler.Retrieve, `{"query": "pricing"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Results  []models.ScoredCandidate `json:"results"`
		Metadata struct {
			QueryType       string `json:"query_type"`
			PrimaryCategory string `json:"primary_category"`
			KeywordFallback bool   `json:"keyword_fallback"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("got %d results, want 1", len(resp.Results))
	}
	if resp.Metadata.QueryType != "factual" || resp.Metadata.PrimaryCategory != "pricing" {
		t.Errorf("metadata = %+v", resp.Metadata)
	}
	if !resp.Metadata.KeywordFallback {
		t.Error("keyword fallback flag not surfaced")
	}
}

func TestRetrieveHandler_EmptyQuery(t *testing.T) {
	handler := NewRetrieveHandler(&stubRetrieval{}, arbor.NewLogger())

	rec := postJSON(t, handler.Retrieve, `{"query": "  "}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if _, code := decodeError(t, rec); code != CodeBadInput {
		t.Errorf("error code = %q, want %q", code, CodeBadInput)
	}
}

func TestRetrieveHandler_NoResults(t *testing.T) {
	service := &stubRetrieval{
		result: &models.RetrievalResult{Candidates: []models.ScoredCandidate{}},
	}
	handler := NewRetrieveHandler(service, arbor.NewLogger())

	rec := postJSON(t, handler.Retrieve, `{"query": "zeppelins"}`)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if _, code := decodeError(t, rec); code != CodeNotFound {
		t.Errorf("error code = %q, want %q", code, CodeNotFound)
	}
}

func TestRetrieveHandler_MalformedBody(t *testing.T) {
	handler := NewRetrieveHandler(&stubRetrieval{}, arbor.NewLogger())

	rec := postJSON(t, handler.Retrieve, `{"query": `)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRetrieveHandler_WrongMethod(t *testing.T) {
	handler := NewRetrieveHandler(&stubRetrieval{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.Retrieve(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if _, code := decodeError(t, rec); code != CodeMethodNotAllowed {
		t.Errorf("error code = %q, want %q", code, CodeMethodNotAllowed)
	}
}
