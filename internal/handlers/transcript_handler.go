package handlers

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/interfaces"
)

const (
	defaultTranscriptLimit = 50
	maxTranscriptLimit     = 200
)

// TranscriptHandler exposes the site owner's chat audit trail. It shares
// the X-Seed-Key secret with the seed endpoint; an unset secret disables
// it the same way.
type TranscriptHandler struct {
	transcripts interfaces.TranscriptStorage
	config      *common.IndexerConfig
	logger      arbor.ILogger
}

// NewTranscriptHandler creates a new transcript handler. transcripts may
// be nil when local storage is disabled.
func NewTranscriptHandler(transcripts interfaces.TranscriptStorage, config *common.Config, logger arbor.ILogger) *TranscriptHandler {
	return &TranscriptHandler{
		transcripts: transcripts,
		config:      &config.Indexer,
		logger:      logger,
	}
}

// TranscriptsHandler handles GET /api/transcripts requests, newest first.
// An optional ?limit= query caps the result count.
func (h *TranscriptHandler) TranscriptsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.config.SeedKey == "" || h.transcripts == nil {
		WriteError(w, http.StatusNotFound, "Transcripts are not enabled")
		return
	}

	provided := r.Header.Get("X-Seed-Key")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.config.SeedKey)) != 1 {
		h.logger.Warn().Str("client", ClientKey(r)).Msg("Transcript request with bad key")
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := defaultTranscriptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxTranscriptLimit {
		limit = maxTranscriptLimit
	}

	transcripts, err := h.transcripts.Recent(limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read transcripts")
		WriteError(w, http.StatusInternalServerError, "Failed to read transcripts")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(transcripts),
		"transcripts": transcripts,
	})
}
