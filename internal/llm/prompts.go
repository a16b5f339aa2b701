package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// SystemPrompt is shared by extraction and verification requests
const SystemPrompt = "You are a meticulous fact-checking assistant. You answer with a single JSON object and nothing else."

// BuildExtractionPrompt asks the model for atomic factual claims
func BuildExtractionPrompt(text string) string {
	return fmt.Sprintf(`Analyze the text and extract every atomic factual claim.
Ignore opinions, questions and instructions.
Return a JSON object with a key "claims" containing a list of strings, in the order they appear.
Example: { "claims": ["The sky is blue", "Water is wet"] }

TEXT: %q`, text)
}

// EvidenceExcerpt is the evidence view given to the verification prompt
type EvidenceExcerpt struct {
	URL     string
	Snippet string
}

// BuildVerificationPrompt asks the model to judge a claim against evidence
func BuildVerificationPrompt(claim string, evidence []EvidenceExcerpt) string {
	var b strings.Builder

	b.WriteString(`ROLE:
You are a senior fact-checker. Your specialty is detecting fabricated facts and fake citations:
plausible-sounding statements or references that do not hold up.

TASK:
Analyze the CLAIM against the EVIDENCE.
1. FACTUAL VERITY: Is the claim supported by the evidence?
2. CITATION INTEGRITY: If the evidence mentions a source (authors, year, title or URL),
   judge whether it appears legitimate or fabricated based on the snippet.
3. COMMON SENSE: Flag physical or biological impossibilities even if a snippet seems to suggest them.

RULES:
- Only cite URLs from the EVIDENCE list.
- If the evidence is insufficient, answer "inconclusive".

`)
	fmt.Fprintf(&b, "CLAIM: %q\n\nEVIDENCE:\n", claim)
	if len(evidence) == 0 {
		b.WriteString("(no evidence available)\n")
	}
	for i, e := range evidence {
		url := e.URL
		if url == "" {
			url = "(no url)"
		}
		fmt.Fprintf(&b, "[%d] %s\n    %q\n", i+1, url, e.Snippet)
	}

	b.WriteString(`
OUTPUT FORMAT (strict JSON):
{
  "status": "verified" | "contradicted" | "inconclusive",
  "confidence_score": <integer 0-100>,
  "reasoning": "<1-2 sentence breakdown of your verification logic>",
  "citation_status": "valid" | "fake_suspicion" | "no_citation"
}`)

	return b.String()
}

var jsonFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// DecodeJSON unmarshals the first JSON object found in model output.
// Models frequently wrap JSON in code fences or add a preamble.
func DecodeJSON(text string, v any) error {
	raw := strings.TrimSpace(text)
	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		raw = strings.TrimSpace(m[1])
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in model output")
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}

// CheckCitations enforces strict evidence mode: every URL in text must be allowed
func CheckCitations(text string, allowed []string) error {
	for _, cited := range extractURLs(text) {
		if !contains(allowed, cited) {
			return fmt.Errorf("CITATION LEAK: LLM cited disallowed URL: %s", cited)
		}
	}
	return nil
}

// extractURLs extracts all URLs from text using regex
func extractURLs(text string) []string {
	urlPattern := regexp.MustCompile(`https?://[^\s\)"']+`)
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	var unique []string
	for _, url := range matches {
		// Clean up trailing punctuation
		url = strings.TrimRight(url, ".,;:!?")
		if !seen[url] {
			seen[url] = true
			unique = append(unique, url)
		}
	}

	return unique
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
