package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/models"
)

func newTestStore(t *testing.T, handler http.Handler) (*SupabaseStore, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := common.NewDefaultConfig()
	config.Supabase.URL = server.URL
	config.Supabase.ServiceKey = "test-service-key"

	store, err := NewSupabaseStore(config, arbor.NewLogger())
	require.NoError(t, err)
	return store, server
}

func TestMatchDocuments(t *testing.T) {
	var gotPayload matchRequest
	var gotAuth string

	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/rpc/match_documents", r.URL.Path)
		assert.Equal(t, "test-service-key", r.Header.Get("apikey"))
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode([]models.RetrievedDocument{
			{Content: "RAG chatbot project", Similarity: 0.91},
			{Content: "Portfolio site", Similarity: 0.62},
		})
	}))

	docs, err := store.MatchDocuments(context.Background(), []float32{0.1, 0.2, 0.3}, 0.5, 3)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "RAG chatbot project", docs[0].Content)
	assert.Equal(t, 0.91, docs[0].Similarity)

	assert.Equal(t, "Bearer test-service-key", gotAuth)
	assert.Equal(t, 0.5, gotPayload.MatchThreshold)
	assert.Equal(t, 3, gotPayload.MatchCount)
	assert.Len(t, gotPayload.QueryEmbedding, 3)
}

func TestMatchDocumentsEmptyResultIsNotAnError(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))

	docs, err := store.MatchDocuments(context.Background(), []float32{0.1}, 0.9, 3)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMatchDocumentsEmptyEmbedding(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the API for an empty embedding")
	}))

	_, err := store.MatchDocuments(context.Background(), nil, 0.5, 3)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestMatchDocumentsUpstreamFailure(t *testing.T) {
	store, server := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))

	_, err := store.MatchDocuments(context.Background(), []float32{0.1}, 0.5, 3)
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)

	// Connection refused classifies the same way as an API error
	server.Close()
	_, err = store.MatchDocuments(context.Background(), []float32{0.1}, 0.5, 3)
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}

func TestListProjects(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/projects", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("select"))

		json.NewEncoder(w).Encode([]models.Project{
			{ID: 1, Title: "Kuttappan", Description: "Portfolio chat assistant", TechStack: []string{"Go", "Supabase"}},
		})
	}))

	projects, err := store.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Kuttappan", projects[0].Title)
	assert.Equal(t, []string{"Go", "Supabase"}, projects[0].TechStack)
}

func TestInsertDocument(t *testing.T) {
	var inserted models.IndexedDocument

	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/documents", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&inserted))
		w.WriteHeader(http.StatusCreated)
	}))

	doc := &models.IndexedDocument{
		ID:        "doc_4c5f8f3a-0000-0000-0000-000000000000",
		Content:   "Project Title: Kuttappan.",
		Embedding: []float32{0.5, 0.25},
		Metadata:  map[string]interface{}{"source": "projects"},
	}
	require.NoError(t, store.InsertDocument(context.Background(), doc))
	assert.Equal(t, doc.ID, inserted.ID)
	assert.Equal(t, doc.Content, inserted.Content)
	assert.Len(t, inserted.Embedding, 2)
}

func TestNewSupabaseStoreValidation(t *testing.T) {
	config := common.NewDefaultConfig()
	_, err := NewSupabaseStore(config, arbor.NewLogger())
	assert.Error(t, err, "missing URL must be rejected at construction")

	config.Supabase.URL = "https://example.supabase.co"
	_, err = NewSupabaseStore(config, arbor.NewLogger())
	assert.Error(t, err, "missing service key must be rejected at construction")
}
