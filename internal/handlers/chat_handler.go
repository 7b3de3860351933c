package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/interfaces"
	"github.com/sahalsk/kuttappan/internal/models"
)

// ChatHandler handles POST /api/chat: validate, rate-limit, run the
// pipeline, and relay the reply. Once the first streamed byte is
// flushed the status code is committed; later failures arrive in-band.
type ChatHandler struct {
	chatService interfaces.ChatService
	limiter     interfaces.RateLimiter
	validate    *validator.Validate
	logger      arbor.ILogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	chatService interfaces.ChatService,
	limiter interfaces.RateLimiter,
	logger arbor.ILogger,
) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		limiter:     limiter,
		validate:    validator.New(),
		logger:      logger,
	}
}

// ChatHandler handles POST /api/chat requests
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode chat request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Chat request failed validation")
		WriteError(w, http.StatusBadRequest, "Messages must be a non-empty list of role/content pairs")
		return
	}

	clientKey := ClientKey(r)
	if !h.limiter.Allow(clientKey) {
		h.logger.Warn().Str("client", clientKey).Msg("Chat request rate limited")
		WriteError(w, http.StatusTooManyRequests, "Too many requests, slow down a little")
		return
	}

	h.logger.Info().
		Str("client", clientKey).
		Int("messages", len(req.Messages)).
		Msg("Processing chat request")

	reply, err := h.chatService.Respond(r.Context(), &req, clientKey)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if reply.Stream == nil {
		// Contact short-circuit: full text in one write, same content type
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(reply.Text))
		return
	}

	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)
	for fragment := range reply.Stream {
		if _, err := w.Write([]byte(fragment)); err != nil {
			h.logger.Debug().Err(err).Msg("Client disconnected mid-stream")
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

// writeFailure maps a pipeline error to a status code. Runs only before
// any response bytes have been written.
func (h *ChatHandler) writeFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrInvalidInput) {
		h.logger.Warn().Err(err).Msg("Chat request rejected")
		WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.Error().Err(err).Msg("Chat pipeline failed")
	WriteError(w, http.StatusInternalServerError, "Something went wrong generating a response. Please try again.")
}

// HealthHandler handles GET /api/chat/health requests
func (h *ChatHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.chatService.HealthCheck(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Chat service health check failed")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"healthy": false,
			"error":   err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"healthy": true,
	})
}
