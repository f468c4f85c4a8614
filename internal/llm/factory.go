package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/promessa/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "groq", "deepseek":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(config)

	case "":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, groq, deepseek, anthropic, ollama, gemini)", config.Provider)
	}
}

// ConfigFromModel converts one configured provider to llm.Config. Proxy
// settings are shared with the data sources.
func ConfigFromModel(p model.ProviderConfig, sources model.SourcesConfig) Config {
	cfg := DefaultConfig()
	cfg.Name = p.Name
	cfg.Provider = p.Provider
	cfg.Model = p.Model
	cfg.APIKey = p.ResolveAPIKey()
	cfg.BaseURL = p.BaseURL
	if p.Timeout > 0 {
		cfg.Timeout = p.Timeout
	}
	if p.MaxTokens > 0 {
		cfg.MaxTokens = p.MaxTokens
	}
	cfg.HTTPProxy = sources.HTTPProxy
	cfg.HTTPSProxy = sources.HTTPSProxy
	cfg.NoProxy = sources.NoProxy
	return cfg
}

// NewProviders builds the ordered provider chain. Hosted providers without
// an API key are skipped and reported in the returned notes.
func NewProviders(cfg model.LLMConfig, sources model.SourcesConfig) ([]Provider, []string, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	var providers []Provider
	var skipped []string
	for _, pc := range cfg.Providers {
		c := ConfigFromModel(pc, sources)
		if c.APIKey == "" && !strings.EqualFold(c.Provider, "ollama") {
			skipped = append(skipped, fmt.Sprintf("%s: no API key", c.label()))
			continue
		}

		p, err := NewProvider(c)
		if err != nil {
			return nil, skipped, fmt.Errorf("provider %s: %w", c.label(), err)
		}
		if p != nil {
			providers = append(providers, p)
		}
	}
	return providers, skipped, nil
}
