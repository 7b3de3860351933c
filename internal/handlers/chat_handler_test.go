package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/interfaces"
	"github.com/sahalsk/kuttappan/internal/models"
)

// mockChatService records Respond invocations and returns a canned reply.
type mockChatService struct {
	calls     int
	lastKey   string
	reply     *interfaces.ChatReply
	err       error
	healthErr error
}

func (m *mockChatService) Respond(ctx context.Context, req *models.ChatRequest, clientKey string) (*interfaces.ChatReply, error) {
	m.calls++
	m.lastKey = clientKey
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

func (m *mockChatService) HealthCheck(ctx context.Context) error { return m.healthErr }

// allowAll / denyAll are trivial RateLimiter implementations.
type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func streamOf(fragments ...string) <-chan string {
	out := make(chan string, len(fragments))
	for _, f := range fragments {
		out <- f
	}
	close(out)
	return out
}

func postChat(t *testing.T, handler *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.RemoteAddr = "1.2.3.4:5678"
	w := httptest.NewRecorder()
	handler.ChatHandler(w, req)
	return w
}

func TestChatHandlerInvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json at all"},
		{"missing messages", `{}`},
		{"empty messages", `{"messages": []}`},
		{"bad role", `{"messages": [{"role": "robot", "content": "hi"}]}`},
		{"missing content", `{"messages": [{"role": "user"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockChatService{}
			handler := NewChatHandler(service, allowAll{}, arbor.NewLogger())

			w := postChat(t, handler, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), "error")
			assert.Equal(t, 0, service.calls, "invalid requests must not reach the pipeline")
		})
	}
}

func TestChatHandlerRateLimited(t *testing.T) {
	service := &mockChatService{}
	handler := NewChatHandler(service, denyAll{}, arbor.NewLogger())

	w := postChat(t, handler, `{"messages": [{"role": "user", "content": "hello there"}]}`)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 0, service.calls, "rate limiting happens before the pipeline runs")
}

func TestChatHandlerContactShortCircuit(t *testing.T) {
	service := &mockChatService{reply: &interfaces.ChatReply{
		Intent: models.IntentContact,
		Text:   "Email: sahal@example.com\nLinkedIn: https://linkedin.com/in/sahalsk",
	}}
	handler := NewChatHandler(service, allowAll{}, arbor.NewLogger())

	w := postChat(t, handler, `{"messages": [{"role": "user", "content": "how can I reach you?"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "sahal@example.com")
	assert.Contains(t, w.Body.String(), "https://linkedin.com/in/sahalsk")
}

func TestChatHandlerStreamsFragmentsInOrder(t *testing.T) {
	service := &mockChatService{reply: &interfaces.ChatReply{
		Intent: models.IntentStandard,
		Stream: streamOf("Sahal ", "builds ", "Go services."),
	}}
	handler := NewChatHandler(service, allowAll{}, arbor.NewLogger())

	w := postChat(t, handler, `{"messages": [{"role": "user", "content": "Tell me about his backend work"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Sahal builds Go services.", w.Body.String(), "fragments relay unchanged and in order")
	assert.True(t, w.Flushed, "each fragment is flushed for progressive rendering")
}

func TestChatHandlerClientKeyPrefersForwardedFor(t *testing.T) {
	service := &mockChatService{reply: &interfaces.ChatReply{Intent: models.IntentContact, Text: "ok"}}
	handler := NewChatHandler(service, allowAll{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages": [{"role": "user", "content": "contact"}]}`))
	req.RemoteAddr = "10.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	w := httptest.NewRecorder()
	handler.ChatHandler(w, req)

	assert.Equal(t, "203.0.113.7", service.lastKey)
}

func TestChatHandlerUpstreamFailureIsJSON500(t *testing.T) {
	service := &mockChatService{err: fmt.Errorf("embed query: %w: 500", models.ErrUpstreamUnavailable)}
	handler := NewChatHandler(service, allowAll{}, arbor.NewLogger())

	w := postChat(t, handler, `{"messages": [{"role": "user", "content": "Tell me about the projects"}]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotContains(t, w.Body.String(), "500", "internal details stay out of the client message")
}

func TestChatHandlerInvalidInputErrorIs400(t *testing.T) {
	service := &mockChatService{err: fmt.Errorf("current turn is empty: %w", models.ErrInvalidInput)}
	handler := NewChatHandler(service, allowAll{}, arbor.NewLogger())

	w := postChat(t, handler, `{"messages": [{"role": "user", "content": "x"}]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandlerMethodNotAllowed(t *testing.T) {
	handler := NewChatHandler(&mockChatService{}, allowAll{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	w := httptest.NewRecorder()
	handler.ChatHandler(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealthHandler(t *testing.T) {
	service := &mockChatService{}
	handler := NewChatHandler(service, allowAll{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/chat/health", nil)
	w := httptest.NewRecorder()
	handler.HealthHandler(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	service.healthErr = errors.New("provider down")
	w = httptest.NewRecorder()
	handler.HealthHandler(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
