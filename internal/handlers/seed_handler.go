package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/services/indexer"
)

// SeedHandler exposes the authenticated re-index endpoint that populates
// the document store the chat pipeline searches.
type SeedHandler struct {
	indexer *indexer.Indexer
	config  *common.IndexerConfig
	logger  arbor.ILogger
}

// NewSeedHandler creates a new seed handler
func NewSeedHandler(idx *indexer.Indexer, config *common.Config, logger arbor.ILogger) *SeedHandler {
	return &SeedHandler{
		indexer: idx,
		config:  &config.Indexer,
		logger:  logger,
	}
}

// SeedHandler handles POST /api/seed requests. Callers authenticate with
// the X-Seed-Key shared secret; an unset secret disables the endpoint.
func (h *SeedHandler) SeedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.config.SeedKey == "" {
		WriteError(w, http.StatusNotFound, "Seeding is not enabled")
		return
	}

	provided := r.Header.Get("X-Seed-Key")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.config.SeedKey)) != 1 {
		h.logger.Warn().Str("client", ClientKey(r)).Msg("Seed request with bad key")
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	count, err := h.indexer.Reindex(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Int("indexed", count).Msg("Re-index failed")
		WriteError(w, http.StatusInternalServerError, "Re-index failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"indexed": count,
		"message": "AI memory updated",
	})
}
