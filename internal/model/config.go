package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete runtime configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Sources     SourcesConfig     `yaml:"sources" mapstructure:"sources"`
	Breaker     BreakerConfig     `yaml:"breaker" mapstructure:"breaker"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Extract     ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Sync        SyncConfig        `yaml:"sync" mapstructure:"sync"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// LLMConfig lists inference providers in priority order
type LLMConfig struct {
	Enabled   bool             `yaml:"enabled" mapstructure:"enabled"`
	Providers []ProviderConfig `yaml:"providers" mapstructure:"providers"`
}

// ProviderConfig configures one inference backend
type ProviderConfig struct {
	Name      string `yaml:"name" mapstructure:"name"`             // Label used in logs and reports
	Provider  string `yaml:"provider" mapstructure:"provider"`     // openai, groq, deepseek, anthropic, ollama, gemini
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	APIKeyEnv string `yaml:"api_key_env,omitempty" mapstructure:"api_key_env"` // Env var read when APIKey is empty
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ResolveAPIKey returns the configured key, falling back to the named env var
func (p ProviderConfig) ResolveAPIKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if p.APIKeyEnv != "" {
		return os.Getenv(p.APIKeyEnv)
	}
	return ""
}

// SourcesConfig configures the public-data adapters
type SourcesConfig struct {
	SiconfiURL        string        `yaml:"siconfi_url" mapstructure:"siconfi_url"`
	TSEURL            string        `yaml:"tse_url" mapstructure:"tse_url"`
	CamaraURL         string        `yaml:"camara_url" mapstructure:"camara_url"`
	SenadoURL         string        `yaml:"senado_url" mapstructure:"senado_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CacheTTL          time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// BreakerConfig holds the circuit breaker parameters shared by all dependencies
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout" mapstructure:"reset_timeout"`
	SuccessThreshold int           `yaml:"success_threshold" mapstructure:"success_threshold"`
}

// CacheConfig selects and tunes the record cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend   string        `yaml:"backend" mapstructure:"backend"` // memory, disk, sqlite, layered
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ExtractConfig tunes claim extraction
type ExtractConfig struct {
	DedupThreshold float64 `yaml:"dedup_threshold" mapstructure:"dedup_threshold"` // Token Jaccard at or above which claims merge
}

// HTTPConfig configures transcript page fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`

	Transcripts TranscriptSourcesConfig `yaml:"transcripts" mapstructure:"transcripts"`
}

// TranscriptSourcesConfig rates the sites transcripts are fetched from.
// Hosts under gov.br, leg.br and jus.br are official without being listed.
type TranscriptSourcesConfig struct {
	OfficialDomains []string          `yaml:"official_domains" mapstructure:"official_domains"`
	PressDomains    []string          `yaml:"press_domains" mapstructure:"press_domains"`
	PathPatterns    []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
	DomainMap       map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"` // host -> official, press or unknown
}

// PathPattern assigns a tier to URLs whose path matches
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CandidateRef names a politician whose history is pre-fetched by sync
type CandidateRef struct {
	Name   string `yaml:"name" mapstructure:"name"`
	Region string `yaml:"region" mapstructure:"region"`
}

// SyncConfig configures the public-data warmup job
type SyncConfig struct {
	Interval   time.Duration  `yaml:"interval" mapstructure:"interval"`
	Retries    int            `yaml:"retries" mapstructure:"retries"`
	RetryDelay time.Duration  `yaml:"retry_delay" mapstructure:"retry_delay"`
	Years      int            `yaml:"years" mapstructure:"years"`
	Candidates []CandidateRef `yaml:"candidates" mapstructure:"candidates"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	Pretty  bool `yaml:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	cacheDir := ".promessa-cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".promessa", "cache")
	}

	return &Config{
		LLM: LLMConfig{
			Enabled: true,
			Providers: []ProviderConfig{
				{Name: "gemini", Provider: "gemini", Model: "gemini-2.0-flash", APIKeyEnv: "GEMINI_API_KEY", Timeout: 90, MaxTokens: 4000},
				{Name: "groq", Provider: "groq", Model: "llama-3.3-70b-versatile", APIKeyEnv: "GROQ_API_KEY", Timeout: 60, MaxTokens: 4000},
				{Name: "deepseek", Provider: "deepseek", Model: "deepseek-chat", APIKeyEnv: "DEEPSEEK_API_KEY", Timeout: 90, MaxTokens: 4000},
				{Name: "openai", Provider: "openai", Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY", Timeout: 60, MaxTokens: 4000},
			},
		},
		Sources: SourcesConfig{
			SiconfiURL:        "https://apidatalake.tesouro.gov.br/api/siconfi",
			TSEURL:            "https://divulgacandcontas.tse.jus.br/divulga/rest/v1",
			CamaraURL:         "https://dadosabertos.camara.leg.br/api/v2",
			SenadoURL:         "https://legis.senado.leg.br/dadosabertos/senador",
			Timeout:           10 * time.Second,
			CacheTTL:          24 * time.Hour,
			UserAgent:         "Promessa/0.1 (+https://github.com/ppiankov/promessa)",
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     60 * time.Second,
			SuccessThreshold: 2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   "layered",
			Dir:       cacheDir,
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Extract: ExtractConfig{
			DedupThreshold: 0.8,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Promessa/0.1 (+https://github.com/ppiankov/promessa)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
			Transcripts: TranscriptSourcesConfig{
				OfficialDomains: []string{"planalto.gov.br", "camara.leg.br", "senado.leg.br", "tse.jus.br"},
				PressDomains: []string{
					"agenciabrasil.ebc.com.br", "g1.globo.com", "folha.uol.com.br", "estadao.com.br",
					"oglobo.globo.com", "valor.globo.com", "cnnbrasil.com.br", "bbc.com",
				},
			},
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Sync: SyncConfig{
			Interval:   6 * time.Hour,
			Retries:    3,
			RetryDelay: 5 * time.Second,
			Years:      5,
		},
		Output: OutputConfig{
			Pretty: true,
		},
	}
}
