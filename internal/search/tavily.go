package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/veritas/internal/model"
)

const tavilyDefaultURL = "https://api.tavily.com"

// TavilyConfig configures the Tavily search API retriever
type TavilyConfig struct {
	APIKey     string
	BaseURL    string
	MaxResults int
}

// Tavily retrieves evidence from the Tavily search API
type Tavily struct {
	config     TavilyConfig
	httpClient *http.Client
}

type tavilyRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

type tavilyError struct {
	Detail struct {
		Error string `json:"error"`
	} `json:"detail"`
}

// NewTavily creates a Tavily retriever
func NewTavily(config TavilyConfig, httpClient *http.Client) (*Tavily, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Tavily API key is required (set search.api_key or TAVILY_API_KEY)")
	}
	if config.BaseURL == "" {
		config.BaseURL = tavilyDefaultURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.MaxResults <= 0 {
		config.MaxResults = 1
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Tavily{config: config, httpClient: httpClient}, nil
}

// Name returns the retriever name
func (t *Tavily) Name() string {
	return "tavily"
}

// Retrieve runs a basic-depth search for the claim text
func (t *Tavily) Retrieve(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:       claim.Text,
		SearchDepth: "basic",
		MaxResults:  t.config.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.config.APIKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr tavilyError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Detail.Error != "" {
			return nil, fmt.Errorf("tavily API error (%d): %s", resp.StatusCode, apiErr.Detail.Error)
		}
		return nil, fmt.Errorf("tavily API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result tavilyResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	items := make([]model.EvidenceItem, 0, len(result.Results))
	for _, r := range result.Results {
		snippet := CleanSnippet(r.Content)
		if snippet == "" {
			continue
		}
		items = append(items, model.EvidenceItem{
			SourceURL: r.URL,
			Title:     CleanSnippet(r.Title),
			Snippet:   snippet,
		})
	}
	return items, nil
}
