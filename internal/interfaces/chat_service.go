package interfaces

import (
	"context"

	"github.com/sahalsk/kuttappan/internal/models"
)

// ChatReply is the outcome of one chat turn. Exactly one of Text or Stream
// is set: Text for deterministic short-circuit answers (contact intent),
// Stream for generated responses relayed fragment by fragment.
type ChatReply struct {
	Intent models.Intent
	Text   string
	Stream <-chan string
}

// ChatService orchestrates the retrieval-augmented chat pipeline:
// intent classification, optional retrieval, prompt composition and
// generation.
type ChatService interface {
	// Respond runs the pipeline for a validated request. clientKey
	// identifies the caller for the transcript log only; rate limiting
	// happens before this call.
	Respond(ctx context.Context, req *models.ChatRequest, clientKey string) (*ChatReply, error)

	// HealthCheck verifies the downstream collaborators are operational.
	HealthCheck(ctx context.Context) error
}
