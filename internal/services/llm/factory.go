package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/interfaces"
)

// NewLLMService creates an LLM service for the configured provider.
// Gemini is always constructed because every provider shares its
// embedding endpoint.
func NewLLMService(config *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	gemini, err := NewGeminiService(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini service: %w", err)
	}

	switch config.LLM.Provider {
	case "gemini", "":
		return gemini, nil
	case "claude":
		claude, err := NewClaudeService(config, gemini, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create claude service: %w", err)
		}
		return claude, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider '%s' (expected gemini or claude)", config.LLM.Provider)
	}
}
