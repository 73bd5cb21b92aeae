package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// StatusHandler serves health and recent-operation metrics
type StatusHandler struct {
	chunks  interfaces.ChunkStorage
	metrics interfaces.MetricsRecorder
	logger  arbor.ILogger
}

func NewStatusHandler(chunks interfaces.ChunkStorage, metrics interfaces.MetricsRecorder, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		chunks:  chunks,
		metrics: metrics,
		logger:  logger,
	}
}

type statusResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	ChunkCount int    `json:"chunk_count"`
}

// Status reports service health and corpus size
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	count, err := h.chunks.CountChunks()
	if err != nil {
		h.logger.Error().Err(err).Msg("Chunk count failed")
		WriteError(w, http.StatusInternalServerError, "storage unavailable", CodeInternal)
		return
	}

	WriteJSON(w, http.StatusOK, statusResponse{
		Status:     "ok",
		Version:    common.GetVersion(),
		ChunkCount: count,
	})
}

// Metrics returns recent per-operation timings, newest first
func (h *StatusHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	WriteJSON(w, http.StatusOK, map[string][]models.PerformanceMetric{
		"metrics": h.metrics.Recent(limit),
	})
}
