package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model operations: embedding
// generation and streamed chat completions. Implementations wrap hosted
// providers (Gemini, Claude); the pipeline never assumes a specific one.
type LLMService interface {
	// Embed generates an embedding vector for the given text. The vector
	// dimension is determined by the configured embedding model; callers
	// must treat it as an opaque numeric fingerprint.
	//
	// Returns models.ErrInvalidInput (wrapped) for empty text and
	// models.ErrUpstreamUnavailable (wrapped) for provider failures.
	// This layer never retries.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ChatStream initiates a streamed completion for the conversation and
	// returns a single-consumer, forward-only channel of text fragments.
	//
	// A non-nil error means the stream could not be initiated, after the
	// configured retries for transient overload. Once the channel is
	// returned, mid-stream provider failures are surfaced in-band as a
	// final human-readable apology fragment; the channel always closes.
	// The producer stops when ctx is cancelled.
	ChatStream(ctx context.Context, messages []Message) (<-chan string, error)

	// HealthCheck verifies the provider is reachable and can serve requests.
	HealthCheck(ctx context.Context) error

	// Provider returns the provider name ("gemini" or "claude") for
	// logging and transcripts.
	Provider() string

	// Close releases resources held by the client.
	Close() error
}
