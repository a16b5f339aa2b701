package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/veritas/internal/util"
)

const (
	anthropicDefaultModel = "claude-3-5-haiku-20241022"
	anthropicAPIVersion   = "2023-06-01"
	anthropicMaxAttempts  = 3
)

// AnthropicProvider talks to the Claude Messages API over plain HTTP
type AnthropicProvider struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	config     Config
	backoff    time.Duration
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicReply struct {
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Content    []contentBlock `json:"content"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// text joins every text block of the reply
func (r *anthropicReply) text() string {
	var parts []string
	for _, block := range r.Content {
		if block.Type == "" || block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

// APIError is a non-2xx answer from the Messages API
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("status %d: %s: %s", e.StatusCode, e.Kind, e.Message)
}

// Retryable reports whether the request may succeed if sent again.
// 529 is the API's "overloaded" status.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == 529 || e.StatusCode >= 500
}

func parseAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: status}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		apiErr.Kind = envelope.Error.Type
		apiErr.Message = envelope.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if config.Model == "" {
		config.Model = anthropicDefaultModel
	}

	base := strings.TrimSuffix(config.BaseURL, "/")
	if base == "" {
		base = "https://api.anthropic.com"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &AnthropicProvider{
		apiKey:   config.APIKey,
		endpoint: base,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		config:  config,
		backoff: 500 * time.Millisecond,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable lists models, which authenticates without spending tokens
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/v1/models", nil)
	if err != nil {
		return false
	}
	p.authorize(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Complete sends one user turn and returns the joined text blocks
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	system := req.System
	if req.JSON {
		// No native JSON mode here, so the system prompt asks for it
		system = strings.TrimSpace(system + "\nRespond with a single JSON object only.")
	}

	payload, err := json.Marshal(anthropicRequest{
		Model:       p.config.model(req.Model),
		MaxTokens:   p.config.maxTokens(req.MaxTokens),
		System:      system,
		Temperature: 0.1,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode Anthropic request: %w", err)
	}

	reply, err := p.send(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API error: %w", err)
	}

	text := reply.text()
	if text == "" {
		return nil, fmt.Errorf("Anthropic reply has no text (stop_reason %q)", reply.StopReason)
	}

	return &CompletionResponse{
		Text:       text,
		Model:      reply.Model,
		TokensUsed: reply.Usage.InputTokens + reply.Usage.OutputTokens,
	}, nil
}

// send posts payload, retrying rate-limit and overload answers with linear backoff
func (p *AnthropicProvider) send(ctx context.Context, payload []byte) (*anthropicReply, error) {
	var lastErr error
	for attempt := 1; attempt <= anthropicMaxAttempts; attempt++ {
		reply, err := p.post(ctx, payload)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() || attempt == anthropicMaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * p.backoff):
		}
	}
	return nil, lastErr
}

func (p *AnthropicProvider) post(ctx context.Context, payload []byte) (*anthropicReply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var reply anthropicReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &reply, nil
}

func (p *AnthropicProvider) authorize(req *http.Request) {
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
}
