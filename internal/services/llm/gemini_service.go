package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/interfaces"
	"github.com/sahalsk/kuttappan/internal/models"
)

// GeminiService implements the LLMService interface using the Gemini API.
// It provides embeddings and streamed chat completions.
type GeminiService struct {
	config  *common.GeminiConfig
	retry   RetryConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGeminiService creates a new Gemini LLM service instance.
func NewGeminiService(config *common.Config, logger arbor.ILogger) (*GeminiService, error) {
	if config.Gemini.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set KUTTAPPAN_GEMINI_API_KEY, GEMINI_API_KEY, or gemini.api_key in config)")
	}

	timeout, err := time.ParseDuration(config.Gemini.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid gemini timeout '%s': %w", config.Gemini.Timeout, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	// Client-side spacing between API calls, independent of the per-IP
	// limiter in front of the handler
	var limiter *rate.Limiter
	if spacing, err := time.ParseDuration(config.Gemini.RateLimit); err == nil && spacing > 0 {
		limiter = rate.NewLimiter(rate.Every(spacing), 1)
	}

	service := &GeminiService{
		config:  &config.Gemini,
		retry:   NewRetryConfig(&config.LLM),
		logger:  logger,
		client:  client,
		limiter: limiter,
		timeout: timeout,
	}

	logger.Info().
		Str("chat_model", config.Gemini.ChatModel).
		Str("embed_model", config.Gemini.EmbedModel).
		Dur("timeout", timeout).
		Msg("Gemini LLM service initialized")

	return service, nil
}

// convertMessages converts []interfaces.Message to Gemini Content format.
// System messages are extracted separately for use with SystemInstruction;
// the last non-system message becomes the current turn, everything before
// it the chat history.
func convertMessages(messages []interfaces.Message) (history []*genai.Content, current string, system string, err error) {
	if len(messages) == 0 {
		return nil, "", "", fmt.Errorf("messages cannot be empty: %w", models.ErrInvalidInput)
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == "system" {
			if system == "" {
				system = msg.Content
			}
			continue
		}

		role := genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}

		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	if len(contents) == 0 {
		return nil, "", "", fmt.Errorf("at least one user message is required: %w", models.ErrInvalidInput)
	}

	last := contents[len(contents)-1]
	return contents[:len(contents)-1], last.Parts[0].Text, system, nil
}

// Embed generates an embedding vector for the given text. The vector
// dimension is whatever the configured embedding model produces; callers
// must not assume a specific size. No retry at this layer.
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation: %w", models.ErrInvalidInput)
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.client.Models.EmbedContent(timeoutCtx, s.config.EmbedModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("text_length", len(text)).
			Msg("Embedding generation failed")
		return nil, upstreamError("embedding generation failed", err)
	}

	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}
	if len(embedding) == 0 {
		return nil, upstreamError("embedding generation failed", fmt.Errorf("no embedding returned from API"))
	}

	s.logger.Debug().
		Int("text_length", len(text)).
		Int("embedding_dim", len(embedding)).
		Dur("duration", time.Since(startTime)).
		Msg("Embedding generated")

	return embedding, nil
}

// geminiStream holds an initiated response stream plus its first chunk,
// which had to be pulled to learn whether initiation succeeded.
type geminiStream struct {
	first *genai.GenerateContentResponse
	ok    bool
	next  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
}

// ChatStream initiates a streamed completion. Overload errors during
// initiation are retried per the configured policy; once fragments start
// flowing, provider failures surface in-band as an apology fragment.
func (s *GeminiService) ChatStream(ctx context.Context, messages []interfaces.Message) (<-chan string, error) {
	history, current, system, err := convertMessages(messages)
	if err != nil {
		return nil, err
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}
	if system != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	streamCtx, cancel := context.WithTimeout(ctx, s.timeout)

	open := func() (*geminiStream, error) {
		if err := s.wait(streamCtx); err != nil {
			return nil, err
		}

		chat, err := s.client.Chats.Create(streamCtx, s.config.ChatModel, genConfig, history)
		if err != nil {
			return nil, err
		}

		next, stop := iter.Pull2(chat.SendMessageStream(streamCtx, genai.Part{Text: current}))
		resp, err, ok := next()
		if err != nil {
			stop()
			return nil, err
		}

		return &geminiStream{first: resp, ok: ok, next: next, stop: stop}, nil
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

// relay forwards fragments from the provider stream to out in arrival
// order. It stops when the stream ends, the consumer cancels, or the
// provider fails (apology appended in that last case).
func (s *GeminiService) relay(ctx context.Context, cancel context.CancelFunc, stream *geminiStream, out chan<- string) {
	defer cancel()
	defer close(out)
	defer stream.stop()

	emit := func(resp *genai.GenerateContentResponse) bool {
		text := resp.Text()
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

	if !stream.ok {
		return
	}
	if !emit(stream.first) {
		return
	}

	for {
		resp, err, ok := stream.next()
		if err != nil {
			if ctx.Err() != nil {
				// Consumer is gone; nobody left to apologize to
				return
			}
			s.logger.Error().Err(err).Msg("Generation stream failed mid-response")
			select {
			case out <- streamApology:
			case <-ctx.Done():
			}
			return
		}
		if !ok {
			return
		}
		if !emit(resp) {
			return
		}
	}
}

// HealthCheck verifies the Gemini API is reachable with lightweight probes.
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	embedding, err := s.Embed(probeCtx, "health check probe")
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("embedding probe returned empty vector")
	}

	return nil
}

// Provider returns the provider name for logging and transcripts
func (s *GeminiService) Provider() string {
	return "gemini"
}

// Close releases resources. The genai client needs no explicit cleanup
// beyond dropping the reference.
func (s *GeminiService) Close() error {
	s.client = nil
	return nil
}

func (s *GeminiService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}
