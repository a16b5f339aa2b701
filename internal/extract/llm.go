package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/veritas/internal/llm"
	"github.com/ppiankov/veritas/internal/model"
)

// LLMExtractor asks a language model for atomic claims.
// Output goes through the same trim/floor/cap rules as the sentence splitter.
type LLMExtractor struct {
	provider llm.Provider
	rules    *ClaimExtractor
}

// NewLLMExtractor creates an extractor backed by provider
func NewLLMExtractor(provider llm.Provider, maxClaims, minLength int) *LLMExtractor {
	return &LLMExtractor{
		provider: provider,
		rules:    NewClaimExtractor(maxClaims, minLength),
	}
}

// Name returns the extractor name
func (e *LLMExtractor) Name() string {
	return "llm:" + e.provider.Name()
}

type extractionOutput struct {
	Claims []string `json:"claims"`
}

// Extract returns claims in the order the model listed them.
// Provider and decode failures are returned; the caller treats them as transport failures.
func (e *LLMExtractor) Extract(ctx context.Context, text string) ([]model.Claim, error) {
	if strings.TrimSpace(text) == "" {
		return []model.Claim{}, nil
	}

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System: llm.SystemPrompt,
		Prompt: llm.BuildExtractionPrompt(text),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("extract claims via %s: %w", e.provider.Name(), err)
	}

	var out extractionOutput
	if err := llm.DecodeJSON(resp.Text, &out); err != nil {
		return nil, fmt.Errorf("extract claims via %s: %w", e.provider.Name(), err)
	}

	return e.rules.normalize(out.Claims), nil
}
