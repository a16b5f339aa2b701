package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/veritas/internal/llm"
	"github.com/ppiankov/veritas/internal/model"
)

// LLM asks a language model to judge each claim against its evidence
type LLM struct {
	provider       llm.Provider
	strictEvidence bool
}

// NewLLM creates a model-backed verifier.
// With strictEvidence, reasoning that cites URLs outside the evidence is rejected.
func NewLLM(provider llm.Provider, strictEvidence bool) *LLM {
	return &LLM{provider: provider, strictEvidence: strictEvidence}
}

// Name returns the verifier name
func (v *LLM) Name() string {
	return "llm:" + v.provider.Name()
}

type verdictOutput struct {
	Status         string  `json:"status"`
	Confidence     flexInt `json:"confidence_score"`
	Reasoning      string  `json:"reasoning"`
	CitationStatus string  `json:"citation_status"`
}

// flexInt accepts 85, 85.5 and "85"
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("confidence_score: %w", err)
	}
	*f = flexInt(math.Round(n))
	return nil
}

// Verify returns the model's verdict, normalized.
// Provider, decode and citation failures are returned for the caller to soft-fail.
func (v *LLM) Verify(ctx context.Context, claim model.Claim, evidence []model.EvidenceItem) (model.Verdict, error) {
	if len(evidence) == 0 {
		return model.Verdict{
			Status:     model.StatusInconclusive,
			Confidence: 0,
			Reasoning:  "No external evidence found.",
		}, nil
	}

	excerpts := make([]llm.EvidenceExcerpt, 0, len(evidence))
	allowed := make([]string, 0, len(evidence))
	for _, item := range evidence {
		excerpts = append(excerpts, llm.EvidenceExcerpt{URL: item.SourceURL, Snippet: item.Snippet})
		if item.SourceURL != "" {
			allowed = append(allowed, item.SourceURL)
		}
	}

	resp, err := v.provider.Complete(ctx, llm.CompletionRequest{
		System: llm.SystemPrompt,
		Prompt: llm.BuildVerificationPrompt(claim.Text, excerpts),
		JSON:   true,
	})
	if err != nil {
		return model.Verdict{}, fmt.Errorf("verify via %s: %w", v.provider.Name(), err)
	}

	var out verdictOutput
	if err := llm.DecodeJSON(resp.Text, &out); err != nil {
		return model.Verdict{}, fmt.Errorf("verify via %s: %w", v.provider.Name(), err)
	}

	if v.strictEvidence {
		if err := llm.CheckCitations(out.Reasoning, allowed); err != nil {
			return model.Verdict{}, err
		}
	}

	confidence := int(out.Confidence)
	if strings.EqualFold(strings.TrimSpace(out.CitationStatus), "fake_suspicion") {
		confidence -= 20
	}

	verdict := model.Verdict{
		Status:     model.NormalizeStatus(out.Status),
		Confidence: model.ClampConfidence(confidence),
		Reasoning:  strings.TrimSpace(out.Reasoning),
	}
	if verdict.Reasoning == "" {
		verdict.Reasoning = fmt.Sprintf("Model judged the claim %s against %s.", verdict.Status, pluralize(len(evidence), "source"))
	}
	return verdict, nil
}

var _ json.Unmarshaler = (*flexInt)(nil)
