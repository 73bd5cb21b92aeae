package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/retrieval"
)

// RetrieveHandler serves POST /api/retrieve
type RetrieveHandler struct {
	service interfaces.RetrievalService
	logger  arbor.ILogger
}

func NewRetrieveHandler(service interfaces.RetrievalService, logger arbor.ILogger) *RetrieveHandler {
	return &RetrieveHandler{
		service: service,
		logger:  logger,
	}
}

type retrieveRequest struct {
	Query   string                   `json:"query"`
	Options *models.RetrievalOptions `json:"options,omitempty"`
}

type retrieveResponse struct {
	Results  []models.ScoredCandidate `json:"results"`
	Metadata retrieveMetadata         `json:"metadata"`
}

type retrieveMetadata struct {
	QueryType       models.QueryType `json:"query_type"`
	PrimaryCategory string           `json:"primary_category,omitempty"`
	ExpandedQuery   string           `json:"expanded_query,omitempty"`
	KeywordFallback bool             `json:"keyword_fallback,omitempty"`
}

// Retrieve runs the retrieval pipeline and returns ranked candidates.
// An empty result set after all fallbacks maps to 404.
func (h *RetrieveHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req retrieveRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Retrieve(r.Context(), req.Query, req.Options)
	if err != nil {
		if errors.Is(err, retrieval.ErrEmptyQuery) {
			WriteError(w, http.StatusBadRequest, "query is required", CodeBadInput)
			return
		}
		h.logger.Error().Err(err).Msg("Retrieve request failed")
		WriteError(w, http.StatusInternalServerError, "retrieval failed", CodeInternal)
		return
	}

	if len(result.Candidates) == 0 {
		WriteError(w, http.StatusNotFound, "no information found for this query", CodeNotFound)
		return
	}

	response := retrieveResponse{
		Results: result.Candidates,
		Metadata: retrieveMetadata{
			ExpandedQuery:   result.Expanded,
			KeywordFallback: result.Fallback,
		},
	}
	if result.Analysis != nil {
		response.Metadata.QueryType = result.Analysis.Type
		response.Metadata.PrimaryCategory = result.Analysis.PrimaryCategory
	}

	WriteJSON(w, http.StatusOK, response)
}
