package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/interfaces"
	"github.com/sahalsk/kuttappan/internal/models"
)

type stubTranscripts struct {
	stored    []*models.Transcript
	recentErr error
	lastLimit int
}

func (s *stubTranscripts) Save(t *models.Transcript) error { return nil }

func (s *stubTranscripts) Recent(limit int) ([]*models.Transcript, error) {
	s.lastLimit = limit
	if s.recentErr != nil {
		return nil, s.recentErr
	}
	if limit > len(s.stored) {
		limit = len(s.stored)
	}
	return s.stored[:limit], nil
}

func newTranscriptHandler(seedKey string, transcripts interfaces.TranscriptStorage) *TranscriptHandler {
	config := common.NewDefaultConfig()
	config.Indexer.SeedKey = seedKey
	return NewTranscriptHandler(transcripts, config, arbor.NewLogger())
}

func transcriptRequest(key, query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/transcripts"+query, nil)
	if key != "" {
		req.Header.Set("X-Seed-Key", key)
	}
	return req
}

func TestTranscriptsHandlerRequiresKey(t *testing.T) {
	handler := newTranscriptHandler("s3cret", &stubTranscripts{})

	w := httptest.NewRecorder()
	handler.TranscriptsHandler(w, transcriptRequest("", ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	handler.TranscriptsHandler(w, transcriptRequest("wrong", ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTranscriptsHandlerReturnsRecent(t *testing.T) {
	transcripts := &stubTranscripts{stored: []*models.Transcript{
		{ID: "chat_b", CreatedAt: time.Now(), Intent: "standard", Question: "What does Sahal build?"},
		{ID: "chat_a", CreatedAt: time.Now().Add(-time.Hour), Intent: "greeting", Question: "hi"},
	}}
	handler := newTranscriptHandler("s3cret", transcripts)

	w := httptest.NewRecorder()
	handler.TranscriptsHandler(w, transcriptRequest("s3cret", ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultTranscriptLimit, transcripts.lastLimit)
	assert.Contains(t, w.Body.String(), `"count":2`)
	assert.Contains(t, w.Body.String(), `"chat_b"`)
	assert.Contains(t, w.Body.String(), `"intent":"greeting"`)
}

func TestTranscriptsHandlerLimitQuery(t *testing.T) {
	transcripts := &stubTranscripts{}
	handler := newTranscriptHandler("s3cret", transcripts)

	w := httptest.NewRecorder()
	handler.TranscriptsHandler(w, transcriptRequest("s3cret", "?limit=5"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, transcripts.lastLimit)

	w = httptest.NewRecorder()
	handler.TranscriptsHandler(w, transcriptRequest("s3cret", "?limit=100000"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxTranscriptLimit, transcripts.lastLimit, "oversized limits are capped")

	w = httptest.NewRecorder()
	handler.TranscriptsHandler(w, transcriptRequest("s3cret", "?limit=nope"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscriptsHandlerDisabled(t *testing.T) {
	w := httptest.NewRecorder()
	newTranscriptHandler("", &stubTranscripts{}).TranscriptsHandler(w, transcriptRequest("anything", ""))
	assert.Equal(t, http.StatusNotFound, w.Code, "no secret means no endpoint")

	w = httptest.NewRecorder()
	newTranscriptHandler("s3cret", nil).TranscriptsHandler(w, transcriptRequest("s3cret", ""))
	assert.Equal(t, http.StatusNotFound, w.Code, "disabled storage means no endpoint")
}

func TestTranscriptsHandlerStorageFailure(t *testing.T) {
	handler := newTranscriptHandler("s3cret", &stubTranscripts{recentErr: errors.New("db closed")})

	w := httptest.NewRecorder()
	handler.TranscriptsHandler(w, transcriptRequest("s3cret", ""))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db closed", "internal errors stay internal")
}

func TestTranscriptsHandlerMethodGuard(t *testing.T) {
	handler := newTranscriptHandler("s3cret", &stubTranscripts{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transcripts", nil)
	handler.TranscriptsHandler(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
