package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/sahalsk/kuttappan/internal/models"
)

// Config represents the application configuration
type Config struct {
	Environment string             `toml:"environment"` // "development" or "production"
	Server      ServerConfig       `toml:"server"`
	Logging     LoggingConfig      `toml:"logging"`
	LLM         LLMConfig          `toml:"llm"`
	Gemini      GeminiConfig       `toml:"gemini"`
	Claude      ClaudeConfig       `toml:"claude"`
	Supabase    SupabaseConfig     `toml:"supabase"`
	Retrieval   RetrievalConfig    `toml:"retrieval"`
	RateLimit   RateLimitConfig    `toml:"ratelimit"`
	Contact     models.ContactCard `toml:"contact"`
	Indexer     IndexerConfig      `toml:"indexer"`
	Storage     StorageConfig      `toml:"storage"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// LLMConfig selects the generation provider and carries the retry policy
// shared by all providers.
type LLMConfig struct {
	Provider   string `toml:"provider"`    // "gemini" (default) or "claude"
	MaxRetries int    `toml:"max_retries"` // Total attempts for overloaded providers (default: 3)
	RetryDelay string `toml:"retry_delay"` // Fixed wait between attempts as duration string (default: "2s")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	ChatModel   string  `toml:"chat_model"`  // default: "gemini-2.0-flash"
	EmbedModel  string  `toml:"embed_model"` // default: "text-embedding-004"
	Temperature float32 `toml:"temperature"` // default: 0.7
	Timeout     string  `toml:"timeout"`     // per-call timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // minimum spacing between API calls (default: "0s" = unlimited)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`
	ChatModel string `toml:"chat_model"` // default: "claude-3-5-haiku-latest"
	MaxTokens int    `toml:"max_tokens"` // default: 1024
	Timeout   string `toml:"timeout"`    // default: "2m"
}

// SupabaseConfig contains the document store connection details. The
// service key is required for the seed endpoint's writes; reads use it too.
type SupabaseConfig struct {
	URL        string `toml:"url"`         // project base URL, e.g. https://xyz.supabase.co
	ServiceKey string `toml:"service_key"` // service role key
	Timeout    string `toml:"timeout"`     // HTTP timeout as duration string (default: "30s")
}

// RetrievalConfig tunes the similarity search step of the chat pipeline
type RetrievalConfig struct {
	Threshold         float64 `toml:"threshold"`           // minimum similarity (default: 0.5)
	MaxDocuments      int     `toml:"max_documents"`       // result count limit (default: 3)
	ContextCharBudget int     `toml:"context_char_budget"` // concatenated context cap before composition (default: 3000)
}

// RateLimitConfig bounds per-client request rate on /chat
type RateLimitConfig struct {
	Window      string `toml:"window"`       // fixed window as duration string (default: "60s")
	MaxRequests int    `toml:"max_requests"` // requests allowed per window (default: 10)
}

// IndexerConfig drives the seed endpoint and the optional scheduled re-index
type IndexerConfig struct {
	SeedKey      string `toml:"seed_key"`      // shared secret for X-Seed-Key; empty disables /seed
	Schedule     string `toml:"schedule"`      // cron schedule for re-indexing; empty disables
	ProjectsFile string `toml:"projects_file"` // local YAML fallback when the projects table is empty
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents the local transcript database configuration
type BadgerConfig struct {
	Path    string `toml:"path"`    // database directory path
	Enabled bool   `toml:"enabled"` // disable to skip transcript logging entirely
}

// NewDefaultConfig returns a Config populated with defaults. Every loader
// starts from here; files, env and flags only override.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		LLM: LLMConfig{
			Provider:   "gemini",
			MaxRetries: 3,
			RetryDelay: "2s",
		},
		Gemini: GeminiConfig{
			ChatModel:   "gemini-2.0-flash",
			EmbedModel:  "text-embedding-004",
			Temperature: 0.7,
			Timeout:     "2m",
			RateLimit:   "0s",
		},
		Claude: ClaudeConfig{
			ChatModel: "claude-3-5-haiku-latest",
			MaxTokens: 1024,
			Timeout:   "2m",
		},
		Supabase: SupabaseConfig{
			Timeout: "30s",
		},
		Retrieval: RetrievalConfig{
			Threshold:         0.5,
			MaxDocuments:      3,
			ContextCharBudget: 3000,
		},
		RateLimit: RateLimitConfig{
			Window:      "60s",
			MaxRequests: 10,
		},
		Indexer: IndexerConfig{
			ProjectsFile: "projects.yaml",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:    "./data/transcripts",
				Enabled: true,
			},
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 ->
// file2 -> ... -> env. Later files override earlier ones; environment
// variables override all files. CLI flags are applied separately on top.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks cross-field constraints that defaults cannot guarantee
// once files and env have been merged.
func (c *Config) Validate() error {
	if c.LLM.Provider != "gemini" && c.LLM.Provider != "claude" {
		return fmt.Errorf("invalid llm provider '%s': must be 'gemini' or 'claude'", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 1 {
		return fmt.Errorf("llm.max_retries must be at least 1, got %d", c.LLM.MaxRetries)
	}
	if _, err := time.ParseDuration(c.LLM.RetryDelay); err != nil {
		return fmt.Errorf("invalid llm.retry_delay '%s': %w", c.LLM.RetryDelay, err)
	}
	if _, err := time.ParseDuration(c.Gemini.RateLimit); err != nil {
		return fmt.Errorf("invalid gemini.rate_limit '%s': %w", c.Gemini.RateLimit, err)
	}
	if _, err := time.ParseDuration(c.RateLimit.Window); err != nil {
		return fmt.Errorf("invalid ratelimit.window '%s': %w", c.RateLimit.Window, err)
	}
	if c.RateLimit.MaxRequests < 1 {
		return fmt.Errorf("ratelimit.max_requests must be at least 1, got %d", c.RateLimit.MaxRequests)
	}
	if c.Retrieval.MaxDocuments < 1 {
		return fmt.Errorf("retrieval.max_documents must be at least 1, got %d", c.Retrieval.MaxDocuments)
	}
	if c.Retrieval.Threshold < -1 || c.Retrieval.Threshold > 1 {
		return fmt.Errorf("retrieval.threshold %v outside the similarity domain [-1,1]", c.Retrieval.Threshold)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("KUTTAPPAN_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("KUTTAPPAN_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("KUTTAPPAN_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("KUTTAPPAN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("KUTTAPPAN_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Provider keys and selection
	if provider := os.Getenv("KUTTAPPAN_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if key := os.Getenv("KUTTAPPAN_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		// Same variable the original deployment used
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("KUTTAPPAN_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if model := os.Getenv("KUTTAPPAN_GEMINI_CHAT_MODEL"); model != "" {
		config.Gemini.ChatModel = model
	}
	if model := os.Getenv("KUTTAPPAN_GEMINI_EMBED_MODEL"); model != "" {
		config.Gemini.EmbedModel = model
	}

	// Document store
	if url := os.Getenv("KUTTAPPAN_SUPABASE_URL"); url != "" {
		config.Supabase.URL = url
	}
	if key := os.Getenv("KUTTAPPAN_SUPABASE_SERVICE_KEY"); key != "" {
		config.Supabase.ServiceKey = key
	}

	// Retrieval tuning
	if threshold := os.Getenv("KUTTAPPAN_RETRIEVAL_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Retrieval.Threshold = t
		}
	}
	if limit := os.Getenv("KUTTAPPAN_RETRIEVAL_MAX_DOCUMENTS"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			config.Retrieval.MaxDocuments = n
		}
	}

	// Rate limiting
	if window := os.Getenv("KUTTAPPAN_RATELIMIT_WINDOW"); window != "" {
		config.RateLimit.Window = window
	}
	if maxReq := os.Getenv("KUTTAPPAN_RATELIMIT_MAX_REQUESTS"); maxReq != "" {
		if n, err := strconv.Atoi(maxReq); err == nil {
			config.RateLimit.MaxRequests = n
		}
	}

	// Indexer
	if seedKey := os.Getenv("KUTTAPPAN_SEED_KEY"); seedKey != "" {
		config.Indexer.SeedKey = seedKey
	}
	if schedule := os.Getenv("KUTTAPPAN_INDEXER_SCHEDULE"); schedule != "" {
		config.Indexer.Schedule = schedule
	}

	// Storage
	if badgerPath := os.Getenv("KUTTAPPAN_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
}
