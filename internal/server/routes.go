package server

import (
	"net/http"
)

// setupRoutes registers all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Chat pipeline
	mux.HandleFunc("/api/chat", s.app.ChatHandler.ChatHandler)
	mux.HandleFunc("/api/chat/health", s.app.ChatHandler.HealthHandler)

	// Owner-facing endpoints (X-Seed-Key authenticated)
	mux.HandleFunc("/api/seed", s.app.SeedHandler.SeedHandler)
	mux.HandleFunc("/api/transcripts", s.app.TranscriptHandler.TranscriptsHandler)

	// Process status
	mux.HandleFunc("/health", s.app.StatusHandler.HealthHandler)

	return mux
}
