package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/veritas/internal/llm"
	"github.com/ppiankov/veritas/internal/model"
)

func TestClaimExtractor_TwoClaims(t *testing.T) {
	extractor := NewClaimExtractor(0, 0)

	claims, err := extractor.Extract(context.Background(), "The Eiffel Tower is in Paris. It was completed in 1889.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []model.Claim{
		{Text: "The Eiffel Tower is in Paris", Position: 0},
		{Text: "It was completed in 1889", Position: 1},
	}
	if diff := cmp.Diff(want, claims); diff != "" {
		t.Errorf("claims mismatch (-want +got):\n%s", diff)
	}
}

func TestClaimExtractor_ShortInput(t *testing.T) {
	extractor := NewClaimExtractor(0, 0)

	for _, text := range []string{"Hi.", "", "   ", "\n\t", "Yes! No? Maybe."} {
		claims := extractor.Split(text)
		if claims == nil {
			t.Errorf("Expected empty non-nil slice for %q", text)
		}
		if len(claims) != 0 {
			t.Errorf("Expected 0 claims for %q, got %d", text, len(claims))
		}
	}
}

func TestClaimExtractor_LengthFloor(t *testing.T) {
	extractor := NewClaimExtractor(0, 0)

	// Exactly 10 characters is dropped, 11 is kept
	claims := extractor.Split("abcdefghij. abcdefghijk.")
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
	if claims[0].Text != "abcdefghijk" {
		t.Errorf("Expected 'abcdefghijk', got %q", claims[0].Text)
	}
	if claims[0].Position != 0 {
		t.Errorf("Expected position 0, got %d", claims[0].Position)
	}
}

func TestClaimExtractor_Cap(t *testing.T) {
	extractor := NewClaimExtractor(0, 0)

	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "Sentence number %d is long enough. ", i)
	}

	claims := extractor.Split(b.String())
	if len(claims) != DefaultMaxClaims {
		t.Fatalf("Expected %d claims, got %d", DefaultMaxClaims, len(claims))
	}
	for i, c := range claims {
		if c.Position != i {
			t.Errorf("Expected position %d, got %d", i, c.Position)
		}
		if !strings.HasPrefix(c.Text, fmt.Sprintf("Sentence number %d ", i)) {
			t.Errorf("Unexpected claim order at %d: %q", i, c.Text)
		}
	}
}

func TestClaimExtractor_MixedTerminators(t *testing.T) {
	extractor := NewClaimExtractor(0, 0)

	claims := extractor.Split("Is the moon made of cheese?!  Scientists say it is rock... Really now!!")
	got := make([]string, len(claims))
	for i, c := range claims {
		got[i] = c.Text
	}

	want := []string{"Is the moon made of cheese", "Scientists say it is rock"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("claims mismatch (-want +got):\n%s", diff)
	}
}

func TestClaimExtractor_Idempotent(t *testing.T) {
	extractor := NewClaimExtractor(0, 0)

	first := extractor.Split("Mount Everest is the tallest mountain. The Nile is the longest river.")
	texts := make([]string, len(first))
	for i, c := range first {
		texts[i] = c.Text
	}

	second := extractor.normalize(texts)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("re-normalizing changed claims (-first +second):\n%s", diff)
	}
}

func TestClaimExtractor_CustomLimits(t *testing.T) {
	extractor := NewClaimExtractor(2, 3)

	claims := extractor.Split("One. Four. Five five. Sixsix.")
	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(claims))
	}
	if claims[0].Text != "Four" || claims[1].Text != "Five five" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

type stubProvider struct {
	text string
	err  error
	got  llm.CompletionRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Text: s.text}, nil
}

func (s *stubProvider) IsAvailable(context.Context) bool { return s.err == nil }

func TestLLMExtractor_Extract(t *testing.T) {
	provider := &stubProvider{
		text: "```json\n{\"claims\": [\"  Water boils at 100 degrees Celsius  \", \"Short\", \"The Earth orbits the Sun\"]}\n```",
	}
	extractor := NewLLMExtractor(provider, 0, 0)

	claims, err := extractor.Extract(context.Background(), "Water boils at 100 degrees Celsius. Short. The Earth orbits the Sun.")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []model.Claim{
		{Text: "Water boils at 100 degrees Celsius", Position: 0},
		{Text: "The Earth orbits the Sun", Position: 1},
	}
	if diff := cmp.Diff(want, claims); diff != "" {
		t.Errorf("claims mismatch (-want +got):\n%s", diff)
	}
	if !provider.got.JSON {
		t.Error("Expected JSON mode request")
	}
	if extractor.Name() != "llm:stub" {
		t.Errorf("Unexpected name %q", extractor.Name())
	}
}

func TestLLMExtractor_ProviderError(t *testing.T) {
	cause := errors.New("connection refused")
	extractor := NewLLMExtractor(&stubProvider{err: cause}, 0, 0)

	_, err := extractor.Extract(context.Background(), "Some text that is long enough.")
	if !errors.Is(err, cause) {
		t.Fatalf("Expected wrapped provider error, got %v", err)
	}
}

func TestLLMExtractor_MalformedOutput(t *testing.T) {
	extractor := NewLLMExtractor(&stubProvider{text: "I cannot help with that."}, 0, 0)

	if _, err := extractor.Extract(context.Background(), "Some text that is long enough."); err == nil {
		t.Fatal("Expected error for malformed output, got nil")
	}
}

func TestLLMExtractor_BlankInput(t *testing.T) {
	provider := &stubProvider{err: errors.New("should not be called")}
	extractor := NewLLMExtractor(provider, 0, 0)

	claims, err := extractor.Extract(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("Expected no claims, got %d", len(claims))
	}
}
