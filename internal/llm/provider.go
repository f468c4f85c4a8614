package llm

import (
	"context"
	"time"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the label used in logs and reports
	Name() string

	// Complete sends prompt and returns the raw text answer
	Complete(ctx context.Context, prompt string) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Config holds LLM provider configuration
type Config struct {
	// Name labels the provider in logs; defaults to Provider
	Name string

	// Provider kind: "openai", "groq", "deepseek", "anthropic", "ollama", "gemini"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama or an OpenAI-compatible gateway)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling; zero means the package default
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

const (
	defaultTimeout     = 90 * time.Second
	defaultMaxTokens   = 4000
	defaultTemperature = float32(0.2)
)

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:     int(defaultTimeout / time.Second),
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
}

func (c Config) label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Provider
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}

func (c Config) temperature() float32 {
	if c.Temperature <= 0 {
		return defaultTemperature
	}
	return c.Temperature
}
