package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/models"
)

func TestAnswerHandler_Success(t *testing.T) {
	service := &stubRetrieval{
		answer: &models.Answer{
			Text: "Workstream Professional costs **$1,299** per month [1].",
			Sources: []models.AnswerSource{
				{Index: 1, ChunkID: "c1", Source: "pricing-guide"},
			},
			Model: "gemini-2.5-flash",
		},
	}
	handler := NewAnswerHandler(service, arbor.NewLogger())

	rec := postJSON(t, handler.Answer, `{"query": "how much is it?"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Answer     string                `json:"answer"`
		AnswerHTML string                `json:"answer_html"`
		Sources    []models.AnswerSource `json:"sources"`
		Model      string                `json:"model"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !strings.Contains(resp.Answer, "$1,299") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if !strings.Contains(resp.AnswerHTML, "<strong>$1,299</strong>") {
		t.Errorf("markdown not rendered to HTML: %q", resp.AnswerHTML)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].ChunkID != "c1" {
		t.Errorf("sources = %+v", resp.Sources)
	}
}

func TestAnswerHandler_NoInformationIsStillOK(t *testing.T) {
	service := &stubRetrieval{
		answer: &models.Answer{
			Text:    "I don't have information about that in the current knowledge base.",
			Sources: []models.AnswerSource{},
		},
	}
	handler := NewAnswerHandler(service, arbor.NewLogger())

	rec := postJSON(t, handler.Answer, `{"query": "zeppelins"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a no-information answer", rec.Code)
	}
}

func TestAnswerHandler_DegradedFlagSurfaced(t *testing.T) {
	service := &stubRetrieval{
		answer: &models.Answer{Text: "This is taking longer than expected.", Degraded: true},
	}
	handler := NewAnswerHandler(service, arbor.NewLogger())

	rec := postJSON(t, handler.Answer, `{"query": "slow one"}`)

	var resp struct {
		Degraded bool `json:"degraded"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Degraded {
		t.Error("degraded flag not surfaced")
	}
}

func TestAnswerHandler_EmptyQuery(t *testing.T) {
	handler := NewAnswerHandler(&stubRetrieval{}, arbor.NewLogger())

	rec := postJSON(t, handler.Answer, `{"query": ""}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
