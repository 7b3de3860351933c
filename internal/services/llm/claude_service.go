package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/interfaces"
	"github.com/sahalsk/kuttappan/internal/models"
)

// ClaudeService implements the LLMService interface using the Anthropic
// API for chat completions. Anthropic has no embedding endpoint, so
// embeddings delegate to the Gemini service regardless of chat provider:
// the document store's vectors are Gemini-dimensioned either way.
type ClaudeService struct {
	config   *common.ClaudeConfig
	retry    RetryConfig
	logger   arbor.ILogger
	client   anthropic.Client
	embedder *GeminiService
	timeout  time.Duration
}

// NewClaudeService creates a new Claude LLM service instance.
func NewClaudeService(config *common.Config, embedder *GeminiService, logger arbor.ILogger) (*ClaudeService, error) {
	if config.Claude.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set KUTTAPPAN_CLAUDE_API_KEY or claude.api_key in config)")
	}
	if embedder == nil {
		return nil, fmt.Errorf("claude provider requires the Gemini embedder")
	}

	timeout, err := time.ParseDuration(config.Claude.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid claude timeout '%s': %w", config.Claude.Timeout, err)
	}

	service := &ClaudeService{
		config:   &config.Claude,
		retry:    NewRetryConfig(&config.LLM),
		logger:   logger,
		client:   anthropic.NewClient(option.WithAPIKey(config.Claude.APIKey)),
		embedder: embedder,
		timeout:  timeout,
	}

	logger.Info().
		Str("chat_model", config.Claude.ChatModel).
		Dur("timeout", timeout).
		Msg("Claude LLM service initialized")

	return service, nil
}

// convertMessagesToClaude converts []interfaces.Message to Claude
// MessageParam format. System messages are extracted separately for the
// System parameter.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty: %w", models.ErrInvalidInput)
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			if systemText == "" {
				systemText = msg.Content
			}
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	if len(claudeMessages) == 0 {
		return nil, "", fmt.Errorf("at least one user message is required: %w", models.ErrInvalidInput)
	}

	return claudeMessages, systemText, nil
}

// Embed delegates to the Gemini embedder.
func (s *ClaudeService) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.Embed(ctx, text)
}

// claudeStream holds an initiated event stream plus its first event.
type claudeStream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
	first  anthropic.MessageStreamEventUnion
	ok     bool
}

// ChatStream initiates a streamed completion with the shared retry policy.
func (s *ClaudeService) ChatStream(ctx context.Context, messages []interfaces.Message) (<-chan string, error) {
	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.ChatModel),
		MaxTokens: int64(s.config.MaxTokens),
		Messages:  claudeMessages,
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	streamCtx, cancel := context.WithTimeout(ctx, s.timeout)

	open := func() (*claudeStream, error) {
		stream := s.client.Messages.NewStreaming(streamCtx, params)
		if !stream.Next() {
			err := stream.Err()
			stream.Close()
			if err == nil {
				// Stream ended before producing anything; treat as empty success
				return &claudeStream{stream: nil, ok: false}, nil
			}
			return nil, err
		}
		return &claudeStream{stream: stream, first: stream.Current(), ok: true}, nil
	}

	stream, err := openWithRetry(streamCtx, s.retry, s.logger, s.Provider(), open)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan string)
	go s.relay(streamCtx, cancel, stream, out)
	return out, nil
}

func (s *ClaudeService) relay(ctx context.Context, cancel context.CancelFunc, stream *claudeStream, out chan<- string) {
	defer cancel()
	defer close(out)

	if !stream.ok {
		return
	}
	defer stream.stream.Close()

	emit := func(event anthropic.MessageStreamEventUnion) bool {
		text := deltaText(event)
		if text == "" {
			return true
		}
		select {
		case out <- text:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !emit(stream.first) {
		return
	}

	for stream.stream.Next() {
		if !emit(stream.stream.Current()) {
			return
		}
	}

	if err := stream.stream.Err(); err != nil && ctx.Err() == nil {
		s.logger.Error().Err(err).Msg("Generation stream failed mid-response")
		select {
		case out <- streamApology:
		case <-ctx.Done():
		}
	}
}

// deltaText extracts streamed text from an event, ignoring lifecycle
// events that carry none.
func deltaText(event anthropic.MessageStreamEventUnion) string {
	switch eventVariant := event.AsAny().(type) {
	case anthropic.ContentBlockDeltaEvent:
		switch deltaVariant := eventVariant.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			return deltaVariant.Text
		}
	}
	return ""
}

// HealthCheck verifies both the Anthropic API and the Gemini embedder.
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	if err := s.embedder.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedder unhealthy: %w", err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.client.Messages.New(probeCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.ChatModel),
		MaxTokens: 8,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("chat probe failed: %w", err)
	}

	return nil
}

// Provider returns the provider name for logging and transcripts
func (s *ClaudeService) Provider() string {
	return "claude"
}

// Close releases resources for both the Claude client and the embedder.
func (s *ClaudeService) Close() error {
	return s.embedder.Close()
}
