package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/interfaces"
	"github.com/sahalsk/kuttappan/internal/models"
)

// Service orchestrates one chat turn: classify the message, retrieve
// context when warranted, compose the prompt, and hand back either a
// deterministic short-circuit text or a live generation stream.
type Service struct {
	llm         interfaces.LLMService
	store       interfaces.DocumentStore
	transcripts interfaces.TranscriptStorage
	retrieval   common.RetrievalConfig
	contact     models.ContactCard
	logger      arbor.ILogger
}

// NewService creates the chat pipeline service. transcripts may be nil
// when local storage is disabled.
func NewService(
	config *common.Config,
	llm interfaces.LLMService,
	store interfaces.DocumentStore,
	transcripts interfaces.TranscriptStorage,
	logger arbor.ILogger,
) *Service {
	return &Service{
		llm:         llm,
		store:       store,
		transcripts: transcripts,
		retrieval:   config.Retrieval,
		contact:     config.Contact,
		logger:      logger,
	}
}

// Respond runs the pipeline for a validated request. Only the last
// message drives retrieval; earlier messages ride along as conversation
// history for the model.
func (s *Service) Respond(ctx context.Context, req *models.ChatRequest, clientKey string) (*interfaces.ChatReply, error) {
	message := req.LastMessage()
	if message == "" {
		return nil, fmt.Errorf("current turn is empty: %w", models.ErrInvalidInput)
	}

	intent := ClassifyIntent(message)
	s.logger.Debug().
		Str("intent", string(intent)).
		Int("history", len(req.History())).
		Msg("Classified chat turn")

	if intent == models.IntentContact {
		text := ContactReply(s.contact)
		s.record(clientKey, intent, message, 0, len(text))
		return &interfaces.ChatReply{Intent: intent, Text: text}, nil
	}

	var contextText string
	var docCount int
	if intent == models.IntentStandard {
		docs, err := s.retrieve(ctx, message)
		if err != nil {
			return nil, err
		}
		docCount = len(docs)
		contextText = BuildContextText(docs, s.retrieval.ContextCharBudget)
	}

	stream, err := s.llm.ChatStream(ctx, s.buildMessages(req, contextText))
	if err != nil {
		return nil, err
	}

	return &interfaces.ChatReply{
		Intent: intent,
		Stream: s.observe(ctx, stream, clientKey, intent, message, docCount),
	}, nil
}

// retrieve embeds the current turn and runs the similarity search. An
// embedding failure aborts the turn; a search failure degrades to empty
// context so the model still answers from its persona.
func (s *Service) retrieve(ctx context.Context, message string) ([]models.RetrievedDocument, error) {
	embedding, err := s.llm.Embed(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := s.store.MatchDocuments(ctx, embedding, s.retrieval.Threshold, s.retrieval.MaxDocuments)
	if err != nil {
		if errors.Is(err, models.ErrUpstreamUnavailable) {
			s.logger.Warn().Err(err).Msg("Similarity search unavailable, continuing with empty context")
			return nil, nil
		}
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	return docs, nil
}

// buildMessages assembles the provider-facing conversation: the composed
// system instruction, the accepted history, and the current turn.
func (s *Service) buildMessages(req *models.ChatRequest, contextText string) []interfaces.Message {
	messages := make([]interfaces.Message, 0, len(req.Messages)+1)
	messages = append(messages, interfaces.Message{
		Role:    "system",
		Content: ComposePrompt(contextText),
	})
	for _, msg := range req.Messages {
		messages = append(messages, interfaces.Message{Role: msg.Role, Content: msg.Content})
	}
	return messages
}

// observe relays the generation stream unchanged while counting response
// size, then records the transcript once the stream closes. The consumer
// disappearing (request context cancelled) also ends the relay.
func (s *Service) observe(ctx context.Context, stream <-chan string, clientKey string, intent models.Intent, question string, docCount int) <-chan string {
	out := make(chan string)
	common.SafeGo(s.logger, "chat.observe", func() {
		defer close(out)

		chars := 0
		defer func() { s.record(clientKey, intent, question, docCount, chars) }()

		for fragment := range stream {
			select {
			case out <- fragment:
				chars += len(fragment)
			case <-ctx.Done():
				return
			}
		}
	})
	return out
}

// record writes the transcript best-effort; a storage failure is logged
// and swallowed, never surfaced to the visitor.
func (s *Service) record(clientKey string, intent models.Intent, question string, docCount, responseChars int) {
	if s.transcripts == nil {
		return
	}

	t := &models.Transcript{
		ID:            common.NewTranscriptID(),
		CreatedAt:     time.Now(),
		ClientKey:     clientKey,
		Intent:        string(intent),
		Question:      question,
		ContextDocs:   docCount,
		ResponseChars: responseChars,
		Provider:      s.llm.Provider(),
	}

	if err := s.transcripts.Save(t); err != nil {
		s.logger.Warn().Err(err).Str("id", t.ID).Msg("Failed to save chat transcript")
	}
}

// HealthCheck verifies the LLM provider and document store.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.llm.HealthCheck(ctx); err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}

	if checker, ok := s.store.(interface{ HealthCheck(context.Context) error }); ok {
		if err := checker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("document store: %w", err)
		}
	}

	return nil
}

var _ interfaces.ChatService = (*Service)(nil)
