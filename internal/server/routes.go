package server

import (
	"net/http"

	"github.com/ternarybob/respondeo/internal/handlers"
)

// setupRoutes registers the API routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	retrieveHandler := handlers.NewRetrieveHandler(s.app.RetrievalService, s.app.Logger)
	answerHandler := handlers.NewAnswerHandler(s.app.RetrievalService, s.app.Logger)
	statsHandler := handlers.NewStatsHandler(s.app.StatsBuilder, s.app.Logger)
	statusHandler := handlers.NewStatusHandler(s.app.Storage.ChunkStorage(), s.app.Metrics, s.app.Logger)

	mux.HandleFunc("/api/retrieve", retrieveHandler.Retrieve)
	mux.HandleFunc("/api/answer", answerHandler.Answer)
	mux.HandleFunc("/api/stats", statsHandler.Get)
	mux.HandleFunc("/api/stats/rebuild", statsHandler.Rebuild)
	mux.HandleFunc("/api/status", statusHandler.Status)
	mux.HandleFunc("/health", statusHandler.Status)
	mux.HandleFunc("/api/metrics", statusHandler.Metrics)

	return mux
}
