package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/retrieval"
	"github.com/yuin/goldmark"
)

// AnswerHandler serves POST /api/answer
type AnswerHandler struct {
	service  interfaces.RetrievalService
	markdown goldmark.Markdown
	logger   arbor.ILogger
}

func NewAnswerHandler(service interfaces.RetrievalService, logger arbor.ILogger) *AnswerHandler {
	return &AnswerHandler{
		service:  service,
		markdown: goldmark.New(),
		logger:   logger,
	}
}

type answerRequest struct {
	Query   string                   `json:"query"`
	Options *models.RetrievalOptions `json:"options,omitempty"`
}

type answerResponse struct {
	Answer         string                `json:"answer"`
	AnswerHTML     string                `json:"answer_html,omitempty"`
	Sources        []models.AnswerSource `json:"sources"`
	Conversational bool                  `json:"conversational,omitempty"`
	Degraded       bool                  `json:"degraded,omitempty"`
	Model          string                `json:"model,omitempty"`
}

// Answer runs the full pipeline. A query with no matching corpus content
// still gets a 200 with the no-information message; only bad input and
// internal failures map to error statuses.
func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req answerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	answer, err := h.service.Answer(r.Context(), req.Query, req.Options)
	if err != nil {
		if errors.Is(err, retrieval.ErrEmptyQuery) {
			WriteError(w, http.StatusBadRequest, "query is required", CodeBadInput)
			return
		}
		h.logger.Error().Err(err).Msg("Answer request failed")
		WriteError(w, http.StatusInternalServerError, "answer generation failed", CodeInternal)
		return
	}

	WriteJSON(w, http.StatusOK, answerResponse{
		Answer:         answer.Text,
		AnswerHTML:     h.renderHTML(answer.Text),
		Sources:        answer.Sources,
		Conversational: answer.Conversational,
		Degraded:       answer.Degraded,
		Model:          answer.Model,
	})
}

// renderHTML converts the markdown answer to HTML for web clients.
// Rendering failure is non-fatal; clients always get the plain text.
func (h *AnswerHandler) renderHTML(text string) string {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(text), &buf); err != nil {
		h.logger.Warn().Err(err).Msg("Markdown rendering failed")
		return ""
	}
	return buf.String()
}
