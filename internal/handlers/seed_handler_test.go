package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/interfaces"
	"github.com/sahalsk/kuttappan/internal/models"
	"github.com/sahalsk/kuttappan/internal/services/indexer"
)

type seedLLM struct{}

func (seedLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}
func (seedLLM) ChatStream(ctx context.Context, messages []interfaces.Message) (<-chan string, error) {
	return nil, nil
}
func (seedLLM) HealthCheck(ctx context.Context) error { return nil }
func (seedLLM) Provider() string                      { return "stub" }
func (seedLLM) Close() error                          { return nil }

type seedStore struct {
	inserted int
}

func (s *seedStore) MatchDocuments(ctx context.Context, embedding []float32, threshold float64, limit int) ([]models.RetrievedDocument, error) {
	return nil, nil
}

func (s *seedStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	return []models.Project{{ID: 1, Title: "Kuttappan", Description: "RAG assistant"}}, nil
}

func (s *seedStore) InsertDocument(ctx context.Context, doc *models.IndexedDocument) error {
	s.inserted++
	return nil
}

func newSeedHandler(seedKey string, store *seedStore) *SeedHandler {
	config := common.NewDefaultConfig()
	config.Indexer.SeedKey = seedKey
	config.Indexer.ProjectsFile = ""
	idx := indexer.New(config, seedLLM{}, store, arbor.NewLogger())
	return NewSeedHandler(idx, config, arbor.NewLogger())
}

func seedRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/seed", nil)
	if key != "" {
		req.Header.Set("X-Seed-Key", key)
	}
	return req
}

func TestSeedHandlerRequiresKey(t *testing.T) {
	store := &seedStore{}
	handler := newSeedHandler("s3cret", store)

	w := httptest.NewRecorder()
	handler.SeedHandler(w, seedRequest(""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	handler.SeedHandler(w, seedRequest("wrong"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Zero(t, store.inserted, "nothing is indexed without a valid key")
}

func TestSeedHandlerReindexes(t *testing.T) {
	store := &seedStore{}
	handler := newSeedHandler("s3cret", store)

	w := httptest.NewRecorder()
	handler.SeedHandler(w, seedRequest("s3cret"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"indexed":1`)
	assert.Equal(t, 1, store.inserted)
}

func TestSeedHandlerDisabledWithoutSecret(t *testing.T) {
	handler := newSeedHandler("", &seedStore{})

	w := httptest.NewRecorder()
	handler.SeedHandler(w, seedRequest("anything"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
