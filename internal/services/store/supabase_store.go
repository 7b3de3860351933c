package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/interfaces"
	"github.com/sahalsk/kuttappan/internal/models"
)

const (
	// DefaultTimeout is the default HTTP timeout for store calls.
	DefaultTimeout = 30 * time.Second

	matchDocumentsRPC = "match_documents"
)

// SupabaseStore talks to the hosted Postgres document store over the
// PostgREST API. Similarity search goes through the match_documents
// stored procedure; the projects and documents tables are plain REST.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     arbor.ILogger
}

// NewSupabaseStore creates a document store client from config.
func NewSupabaseStore(config *common.Config, logger arbor.ILogger) (*SupabaseStore, error) {
	if config.Supabase.URL == "" {
		return nil, fmt.Errorf("supabase URL is required (set KUTTAPPAN_SUPABASE_URL or supabase.url in config)")
	}
	if config.Supabase.ServiceKey == "" {
		return nil, fmt.Errorf("supabase service key is required (set KUTTAPPAN_SUPABASE_SERVICE_KEY or supabase.service_key in config)")
	}

	timeout := DefaultTimeout
	if config.Supabase.Timeout != "" {
		parsed, err := time.ParseDuration(config.Supabase.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid supabase timeout '%s': %w", config.Supabase.Timeout, err)
		}
		timeout = parsed
	}

	store := &SupabaseStore{
		baseURL:    strings.TrimRight(config.Supabase.URL, "/"),
		serviceKey: config.Supabase.ServiceKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}

	logger.Info().
		Str("url", store.baseURL).
		Dur("timeout", timeout).
		Msg("Supabase document store initialized")

	return store, nil
}

// matchRequest is the payload for the match_documents stored procedure.
type matchRequest struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	MatchThreshold float64   `json:"match_threshold"`
	MatchCount     int       `json:"match_count"`
}

// MatchDocuments runs similarity search against the documents table. An
// empty result set is a normal outcome; only transport or API failures
// return an error, wrapped with models.ErrUpstreamUnavailable.
func (s *SupabaseStore) MatchDocuments(ctx context.Context, embedding []float32, threshold float64, limit int) ([]models.RetrievedDocument, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding cannot be empty: %w", models.ErrInvalidInput)
	}

	payload := matchRequest{
		QueryEmbedding: embedding,
		MatchThreshold: threshold,
		MatchCount:     limit,
	}

	var docs []models.RetrievedDocument
	if err := s.post(ctx, "/rest/v1/rpc/"+matchDocumentsRPC, payload, &docs); err != nil {
		return nil, fmt.Errorf("similarity search: %w: %w", models.ErrUpstreamUnavailable, err)
	}

	s.logger.Debug().
		Int("matches", len(docs)).
		Float64("threshold", threshold).
		Msg("Similarity search completed")

	return docs, nil
}

// ListProjects fetches every row of the projects table.
func (s *SupabaseStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := s.get(ctx, "/rest/v1/projects?select=*", &projects); err != nil {
		return nil, fmt.Errorf("list projects: %w: %w", models.ErrUpstreamUnavailable, err)
	}
	return projects, nil
}

// InsertDocument writes an embedded document row.
func (s *SupabaseStore) InsertDocument(ctx context.Context, doc *models.IndexedDocument) error {
	if doc == nil || doc.Content == "" {
		return fmt.Errorf("document content cannot be empty: %w", models.ErrInvalidInput)
	}
	if err := s.post(ctx, "/rest/v1/documents", doc, nil); err != nil {
		return fmt.Errorf("insert document: %w: %w", models.ErrUpstreamUnavailable, err)
	}
	return nil
}

// HealthCheck probes the REST endpoint with a cheap single-row read.
func (s *SupabaseStore) HealthCheck(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rows []json.RawMessage
	if err := s.get(probeCtx, "/rest/v1/documents?select=id&limit=1", &rows); err != nil {
		return fmt.Errorf("document store unreachable: %w", err)
	}
	return nil
}

// get performs a GET request against the PostgREST API.
func (s *SupabaseStore) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return s.do(req, result)
}

// post performs a POST request against the PostgREST API. A nil result
// discards the response body.
func (s *SupabaseStore) post(ctx context.Context, path string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, result)
}

func (s *SupabaseStore) do(req *http.Request, result interface{}) error {
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if result == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// compile-time interface check
var _ interfaces.DocumentStore = (*SupabaseStore)(nil)
