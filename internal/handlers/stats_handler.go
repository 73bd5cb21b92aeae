package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/services/index"
)

// StatsHandler serves corpus statistics inspection and rebuild
type StatsHandler struct {
	builder *index.StatsBuilder
	logger  arbor.ILogger
}

func NewStatsHandler(builder *index.StatsBuilder, logger arbor.ILogger) *StatsHandler {
	return &StatsHandler{
		builder: builder,
		logger:  logger,
	}
}

type statsResponse struct {
	TotalDocuments        int       `json:"total_documents"`
	AverageDocumentLength float64   `json:"average_document_length"`
	VocabularySize        int       `json:"vocabulary_size"`
	BuiltAt               time.Time `json:"built_at"`
}

// Get returns the current statistics snapshot
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stats := h.builder.Current()
	WriteJSON(w, http.StatusOK, statsResponse{
		TotalDocuments:        stats.TotalDocuments,
		AverageDocumentLength: stats.AverageDocumentLength,
		VocabularySize:        len(stats.DocumentFrequency),
		BuiltAt:               stats.BuiltAt,
	})
}

// Rebuild recomputes statistics immediately
func (h *StatsHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.builder.Rebuild(); err != nil {
		h.logger.Error().Err(err).Msg("Manual statistics rebuild failed")
		WriteError(w, http.StatusInternalServerError, "statistics rebuild failed", CodeInternal)
		return
	}

	stats := h.builder.Current()
	WriteJSON(w, http.StatusOK, statsResponse{
		TotalDocuments:        stats.TotalDocuments,
		AverageDocumentLength: stats.AverageDocumentLength,
		VocabularySize:        len(stats.DocumentFrequency),
		BuiltAt:               stats.BuiltAt,
	})
}
