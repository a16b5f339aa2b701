package verify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/veritas/internal/llm"
	"github.com/ppiankov/veritas/internal/model"
)

func TestClassifyStance(t *testing.T) {
	tests := []struct {
		desc    string
		claim   string
		snippet string
		want    model.Stance
	}{
		{"overlap supports", "Water boils at 100 degrees Celsius", "At sea level water boils at 100 degrees Celsius.", model.StanceSupports},
		{"refutation cue", "The Great Wall is visible from space", "It is a myth that the Great Wall is visible from space.", model.StanceContradicts},
		{"multi word cue", "Vaccines cause autism", "There is no evidence vaccines cause autism.", model.StanceContradicts},
		{"cue present in claim is ignored", "The moon landing was not a hoax", "The moon landing was not a hoax, records show.", model.StanceSupports},
		{"unrelated", "Mount Everest is the tallest mountain", "Bananas are rich in potassium.", model.StanceNeutral},
		{"stopword claim", "it is what it is", "anything", model.StanceNeutral},
		{"cue inside word does not match", "Paris hosts the Louvre museum", "Paris hosts the Louvre museum; falsehoods aside.", model.StanceSupports},
		{"question echo", "Vaccines cause autism in children", "Do vaccines cause autism in children? What the research shows", model.StanceNeutral},
		{"cue inside a question", "Vaccines cause autism", "Is it a myth that vaccines cause autism?", model.StanceNeutral},
		{"bare restatement", "Water boils at 100 degrees Celsius", "Water boils at 100 degrees Celsius.", model.StanceNeutral},
		{"quoted claim", "The moon is made of green cheese", `Readers asked us about "The moon is made of green cheese".`, model.StanceNeutral},
		{"curly quoted claim", "The moon is made of green cheese", "Readers asked us about “The moon is made of green cheese”.", model.StanceNeutral},
		{"statement after question", "Water boils at 100 degrees Celsius", "Does water boil at 100 degrees? At sea level water boils at 100 degrees Celsius.", model.StanceSupports},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := ClassifyStance(tt.claim, tt.snippet); got != tt.want {
				t.Errorf("ClassifyStance() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeuristic_NoEvidence(t *testing.T) {
	v, err := NewHeuristic().Verify(context.Background(), model.Claim{Text: "Anything at all here"}, nil)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if v.Status != model.StatusInconclusive || v.Confidence != 0 {
		t.Errorf("Expected inconclusive/0, got %s/%d", v.Status, v.Confidence)
	}
	if v.Reasoning != "No external evidence found." {
		t.Errorf("Unexpected reasoning %q", v.Reasoning)
	}
}

func TestHeuristic_Policy(t *testing.T) {
	claim := model.Claim{Text: "The Eiffel Tower was completed in March 1889"}
	supports := model.EvidenceItem{SourceURL: "https://a.example", Snippet: "x", Stance: model.StanceSupports}
	contradicts := model.EvidenceItem{SourceURL: "https://b.example", Snippet: "x", Stance: model.StanceContradicts}
	neutral := model.EvidenceItem{SourceURL: "https://c.example", Snippet: "Bananas are yellow fruit"}
	primary := supports
	primary.Authority = model.TierPrimary

	tests := []struct {
		desc       string
		evidence   []model.EvidenceItem
		status     model.Status
		confidence int
	}{
		// 70 + 5 support + 5 numerals + 5 date
		{"one support", []model.EvidenceItem{supports}, model.StatusVerified, 85},
		{"support capped", []model.EvidenceItem{supports, supports, supports, supports, supports}, model.StatusVerified, 98},
		{"primary bonus", []model.EvidenceItem{primary}, model.StatusVerified, 90},
		{"contradicted", []model.EvidenceItem{contradicts}, model.StatusContradicted, 40},
		{"contradicted majority", []model.EvidenceItem{contradicts, contradicts, contradicts, supports}, model.StatusContradicted, 35},
		{"neutral only", []model.EvidenceItem{neutral}, model.StatusInconclusive, 45},
		{"tie", []model.EvidenceItem{supports, contradicts}, model.StatusInconclusive, 50},
	}

	h := NewHeuristic()
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			v, err := h.Verify(context.Background(), claim, tt.evidence)
			if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			if v.Status != tt.status {
				t.Errorf("Expected status %s, got %s", tt.status, v.Status)
			}
			if v.Confidence != tt.confidence {
				t.Errorf("Expected confidence %d, got %d", tt.confidence, v.Confidence)
			}
			if v.Reasoning == "" {
				t.Error("Expected reasoning")
			}
		})
	}
}

func TestHeuristic_LongClaimPenalty(t *testing.T) {
	claim := model.Claim{Text: strings.Repeat("word ", 25)}
	v, _ := NewHeuristic().Verify(context.Background(), claim, []model.EvidenceItem{{Snippet: "x", Stance: model.StanceSupports}})
	if v.Confidence != 65 {
		t.Errorf("Expected 70+5-10 = 65, got %d", v.Confidence)
	}
}

func TestHeuristic_DeadSourcesAreNeutral(t *testing.T) {
	dead := false
	item := model.EvidenceItem{SourceURL: "https://gone.example", Snippet: "x", Stance: model.StanceSupports, Reachable: &dead}

	v, _ := NewHeuristic().Verify(context.Background(), model.Claim{Text: "Some claim without digits"}, []model.EvidenceItem{item})
	if v.Status != model.StatusInconclusive {
		t.Errorf("Expected inconclusive for dead source, got %s", v.Status)
	}
	if !strings.Contains(v.Reasoning, "could not be reached") {
		t.Errorf("Expected reasoning to mention unreachable source, got %q", v.Reasoning)
	}
}

func TestHeuristic_ClassifiesUnknownStance(t *testing.T) {
	claim := model.Claim{Text: "The moon is made of green cheese"}

	tests := []struct {
		desc string
		item model.EvidenceItem
		want model.Status
	}{
		{
			"corroborating snippet",
			model.EvidenceItem{Snippet: "Lunar samples show the moon is made of green cheese throughout its crust."},
			model.StatusVerified,
		},
		{
			"quoted claim",
			model.EvidenceItem{Snippet: `Evidence from scientific source regarding: "The moon is made of green cheese..."`},
			model.StatusInconclusive,
		},
		{
			"question headline",
			model.EvidenceItem{Snippet: "Is the moon made of green cheese? A look at lunar geology"},
			model.StatusInconclusive,
		},
		{
			"explicit neutral is kept",
			model.EvidenceItem{Snippet: "Lunar samples show the moon is made of green cheese throughout its crust.", Stance: model.StanceNeutral},
			model.StatusInconclusive,
		},
	}

	h := NewHeuristic()
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			v, err := h.Verify(context.Background(), claim, []model.EvidenceItem{tt.item})
			if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			if v.Status != tt.want {
				t.Errorf("Expected %s, got %s (%d)", tt.want, v.Status, v.Confidence)
			}
		})
	}
}

type fakeProvider struct {
	text  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text}, nil
}

func (f *fakeProvider) IsAvailable(context.Context) bool { return true }

func TestLLM_Verify(t *testing.T) {
	evidence := []model.EvidenceItem{{SourceURL: "https://en.wikipedia.org/wiki/Boiling_point", Snippet: "Water boils at 100 C"}}
	claim := model.Claim{Text: "Water boils at 100 degrees"}

	tests := []struct {
		desc       string
		output     string
		status     model.Status
		confidence int
	}{
		{"verified", `{"status":"verified","confidence_score":92,"reasoning":"Matches https://en.wikipedia.org/wiki/Boiling_point","citation_status":"valid"}`, model.StatusVerified, 92},
		{"string score", `{"status":"Contradicted","confidence_score":"30","reasoning":"No."}`, model.StatusContradicted, 30},
		{"unknown status", `{"status":"error","confidence_score":150,"reasoning":"?"}`, model.StatusInconclusive, 100},
		{"fake citation", `{"status":"verified","confidence_score":70,"reasoning":"ok","citation_status":"fake_suspicion"}`, model.StatusVerified, 50},
		{"negative", `{"status":"verified","confidence_score":-5,"reasoning":"ok"}`, model.StatusVerified, 0},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			v, err := NewLLM(&fakeProvider{text: tt.output}, true).Verify(context.Background(), claim, evidence)
			if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			if v.Status != tt.status || v.Confidence != tt.confidence {
				t.Errorf("Expected %s/%d, got %s/%d", tt.status, tt.confidence, v.Status, v.Confidence)
			}
		})
	}
}

func TestLLM_NoEvidenceSkipsModel(t *testing.T) {
	provider := &fakeProvider{}
	v, err := NewLLM(provider, true).Verify(context.Background(), model.Claim{Text: "x"}, nil)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("Expected no model call, got %d", provider.calls)
	}
	if v.Status != model.StatusInconclusive || v.Confidence != 0 {
		t.Errorf("Expected inconclusive/0, got %s/%d", v.Status, v.Confidence)
	}
}

func TestLLM_Failures(t *testing.T) {
	evidence := []model.EvidenceItem{{SourceURL: "https://ok.example/a", Snippet: "s"}}
	claim := model.Claim{Text: "claim"}
	cause := errors.New("ollama down")

	if _, err := NewLLM(&fakeProvider{err: cause}, true).Verify(context.Background(), claim, evidence); !errors.Is(err, cause) {
		t.Errorf("Expected wrapped provider error, got %v", err)
	}
	if _, err := NewLLM(&fakeProvider{text: "not json"}, true).Verify(context.Background(), claim, evidence); err == nil {
		t.Error("Expected decode error")
	}

	leak := `{"status":"verified","confidence_score":90,"reasoning":"See https://elsewhere.example/x"}`
	if _, err := NewLLM(&fakeProvider{text: leak}, true).Verify(context.Background(), claim, evidence); err == nil {
		t.Error("Expected citation leak error in strict mode")
	}
	if _, err := NewLLM(&fakeProvider{text: leak}, false).Verify(context.Background(), claim, evidence); err != nil {
		t.Errorf("Expected lenient mode to accept outside citations, got %v", err)
	}
}
