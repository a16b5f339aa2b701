package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	olla "github.com/ollama/ollama/api"

	"github.com/ppiankov/veritas/internal/util"
)

// OllamaProvider implements the Provider interface for Ollama local models
type OllamaProvider struct {
	client  *olla.Client
	baseURL string
	config  Config
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL: %w", err)
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second // Local models can be slow
	}

	hc := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OllamaProvider{
		client:  olla.NewClient(parsed, hc),
		baseURL: baseURL,
		config:  config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks if the Ollama server answers its heartbeat
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	return p.client.Heartbeat(ctx) == nil
}

// Complete runs a non-streaming generate call
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := p.config.model(req.Model)
	if model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3, mistral)")
	}

	stream := false
	genReq := &olla.GenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: &stream,
		Options: map[string]any{
			"temperature": 0.1,
			"num_predict": p.config.maxTokens(req.MaxTokens),
		},
	}
	if req.JSON {
		genReq.Format = json.RawMessage(`"json"`)
	}

	var result *olla.GenerateResponse
	err := p.client.Generate(ctx, genReq, func(resp olla.GenerateResponse) error {
		result = &resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("no response from ollama")
	}

	tokensUsed := result.PromptEvalCount + result.EvalCount
	if tokensUsed == 0 {
		// Rough estimate: 1 token per 4 characters
		tokensUsed = (len(req.Prompt) + len(result.Response)) / 4
	}

	return &CompletionResponse{
		Text:       strings.TrimSpace(result.Response),
		Model:      result.Model,
		TokensUsed: tokensUsed,
	}, nil
}
