package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/models"
)

// RetryConfig defines retry behavior for initiating a generation stream.
// Only transient provider overload is retried; every other error class
// propagates on first occurrence.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int

	// Delay is the fixed wait between attempts
	Delay time.Duration
}

// Default retry constants, matching the observed provider quota behavior.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// NewRetryConfig builds a RetryConfig from the llm config section,
// falling back to defaults for missing or unparseable values.
func NewRetryConfig(cfg *common.LLMConfig) RetryConfig {
	if cfg == nil {
		return RetryConfig{MaxAttempts: DefaultMaxAttempts, Delay: DefaultRetryDelay}
	}

	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = DefaultMaxAttempts
	}

	delay := DefaultRetryDelay
	if d, err := time.ParseDuration(cfg.RetryDelay); err == nil && d >= 0 {
		delay = d
	}

	return RetryConfig{MaxAttempts: attempts, Delay: delay}
}

// streamApology is emitted in-band when the provider fails after streaming
// has begun. The HTTP status is already committed at that point, so the
// stream closes normally from the transport's perspective.
const streamApology = "\n\nAiyyo, something glitched on my side while answering. Give it another try in a moment, machane."

// IsOverloaded reports whether err carries a transient overload signal
// from a provider. Structured status codes are checked first; message text
// matching remains as a fallback for wrapped or provider-custom errors.
func IsOverloaded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, models.ErrOverloaded) {
		return true
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return overloadedStatus(geminiErr.Code)
	}

	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) {
		return overloadedStatus(claudeErr.StatusCode)
	}

	msg := err.Error()
	return strings.Contains(msg, "503") ||
		strings.Contains(msg, "529") ||
		strings.Contains(msg, "UNAVAILABLE") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "overloaded")
}

func overloadedStatus(code int) bool {
	// 529 is Anthropic's dedicated overloaded status
	return code == 503 || code == 429 || code == 529
}

// openWithRetry invokes open until it yields a stream handle, waiting a
// fixed delay between attempts. Retries happen only for overload-classified
// failures with attempts remaining; the final attempt's error propagates
// unchanged.
func openWithRetry[T any](ctx context.Context, cfg RetryConfig, logger arbor.ILogger, provider string, open func() (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		handle, err := open()
		if err == nil {
			return handle, nil
		}

		if attempt >= cfg.MaxAttempts || !IsOverloaded(err) {
			return zero, err
		}

		logger.Warn().
			Str("provider", provider).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Dur("delay", cfg.Delay).
			Err(err).
			Msg("Provider overloaded, retrying stream initiation")

		select {
		case <-time.After(cfg.Delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// upstreamError wraps a provider failure so callers can classify it with
// errors.Is(err, models.ErrUpstreamUnavailable) while keeping the cause.
func upstreamError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrUpstreamUnavailable, err)
}
