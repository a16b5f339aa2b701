package model

import "time"

// Config is the complete Veritas configuration
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Verify   VerifyConfig   `yaml:"verify" mapstructure:"verify"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Health   HealthConfig   `yaml:"health" mapstructure:"health"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`

	Authority AuthorityConfig `yaml:"authority" mapstructure:"authority"`
}

// PipelineConfig controls the verification run itself
type PipelineConfig struct {
	Workers         int           `yaml:"workers" mapstructure:"workers"`                   // Concurrent per-claim workers (1 = sequential)
	StageTimeout    time.Duration `yaml:"stage_timeout" mapstructure:"stage_timeout"`       // Per retrieval/verification call
	StrictRetrieval bool          `yaml:"strict_retrieval" mapstructure:"strict_retrieval"` // Abort the run on retrieval failure
	Aggregation     string        `yaml:"aggregation" mapstructure:"aggregation"`           // mean, status
}

// ExtractConfig selects and bounds claim extraction
type ExtractConfig struct {
	Backend   string `yaml:"backend" mapstructure:"backend"` // sentence, llm
	MaxClaims int    `yaml:"max_claims" mapstructure:"max_claims"`
	MinLength int    `yaml:"min_length" mapstructure:"min_length"`
}

// SearchConfig selects the evidence retrieval backend
type SearchConfig struct {
	Backend           string  `yaml:"backend" mapstructure:"backend"` // synthetic, tavily, duckduckgo
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxResults        int     `yaml:"max_results" mapstructure:"max_results"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	RespectRobots     bool    `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// VerifyConfig selects the claim verification backend
type VerifyConfig struct {
	Backend      string `yaml:"backend" mapstructure:"backend"` // heuristic, llm
	CheckSources bool   `yaml:"check_sources" mapstructure:"check_sources"`
}

// LLMConfig configures the language model used by llm-backed stages
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	StrictEvidence bool   `yaml:"strict_evidence" mapstructure:"strict_evidence"`
}

// CacheConfig configures evidence caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend   string        `yaml:"backend" mapstructure:"backend"` // memory, layered, redis
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`
	RedisAddr string        `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
}

// HTTPConfig holds outbound HTTP settings
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ServerConfig configures the HTTP service
type ServerConfig struct {
	Addr         string   `yaml:"addr" mapstructure:"addr"`
	AllowOrigins []string `yaml:"allow_origins" mapstructure:"allow_origins"`
	StorePath    string   `yaml:"store_path,omitempty" mapstructure:"store_path"`
}

// HealthConfig configures the reachability monitor
type HealthConfig struct {
	URL      string        `yaml:"url" mapstructure:"url"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// AuthorityConfig lists domains used to classify source authority
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Workers:      4,
			StageTimeout: 30 * time.Second,
			Aggregation:  "mean",
		},
		Extract: ExtractConfig{
			Backend:   "sentence",
			MaxClaims: 10,
			MinLength: 10,
		},
		Search: SearchConfig{
			Backend:           "synthetic",
			MaxResults:        3,
			UserAgent:         "Veritas/0.1 (+https://github.com/ppiankov/veritas)",
			RequestsPerSecond: 2,
			Burst:             2,
			RespectRobots:     true,
		},
		Verify: VerifyConfig{
			Backend: "heuristic",
		},
		LLM: LLMConfig{
			Provider:       "ollama",
			Model:          "llama3",
			Timeout:        60,
			MaxTokens:      512,
			StrictEvidence: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "memory",
			Dir:     ".veritas-cache",
			TTL:     24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr:         ":8000",
			AllowOrigins: []string{"*"},
		},
		Health: HealthConfig{
			URL:      "http://localhost:8000/verify",
			Interval: 10 * time.Second,
			Timeout:  5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"gov", "gov.uk", "europa.eu", "who.int", "nih.gov",
				"doi.org", "arxiv.org", "pubmed.ncbi.nlm.nih.gov",
			},
			SecondaryDomains: []string{
				"wikipedia.org", "britannica.com", "nature.com", "science.org",
				"reuters.com", "apnews.com", "bbc.co.uk", "bbc.com",
			},
		},
	}
}
