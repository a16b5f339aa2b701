package verify

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/ppiankov/veritas/internal/model"
)

var (
	numeralPattern = regexp.MustCompile(`\d+`)
	datePattern    = regexp.MustCompile(`(?i)\d{4}|\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
)

// Heuristic decides a claim's status from the stance of its evidence.
// It never fails and never calls out to the network.
type Heuristic struct{}

// NewHeuristic creates a heuristic verifier
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name returns the verifier name
func (h *Heuristic) Name() string {
	return "heuristic"
}

type tally struct {
	supports    int
	contradicts int
	neutral     int
	dead        int
	primary     bool
}

func countStances(claim model.Claim, evidence []model.EvidenceItem) tally {
	var t tally
	for _, item := range evidence {
		if item.IsDead() {
			t.dead++
			t.neutral++
			continue
		}
		stance := model.NormalizeStance(item.Stance)
		if stance == model.StanceUnknown {
			stance = ClassifyStance(claim.Text, item.Snippet)
		}
		switch stance {
		case model.StanceSupports:
			t.supports++
			if item.Authority == model.TierPrimary {
				t.primary = true
			}
		case model.StanceContradicts:
			t.contradicts++
		default:
			t.neutral++
		}
	}
	return t
}

// Verify applies the stance policy
func (h *Heuristic) Verify(ctx context.Context, claim model.Claim, evidence []model.EvidenceItem) (model.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return model.Verdict{}, err
	}

	if len(evidence) == 0 {
		return model.Verdict{
			Status:     model.StatusInconclusive,
			Confidence: 0,
			Reasoning:  "No external evidence found.",
		}, nil
	}

	t := countStances(claim, evidence)
	sources := pluralize(len(evidence), "source")

	var verdict model.Verdict
	switch {
	case t.supports > t.contradicts:
		confidence := 70 + min(5*t.supports, 20)
		if numeralPattern.MatchString(claim.Text) {
			confidence += 5
		}
		if datePattern.MatchString(claim.Text) {
			confidence += 5
		}
		if utf8.RuneCountInString(claim.Text) > 100 {
			confidence -= 10
		}
		if t.primary {
			confidence += 5
		}
		verdict = model.Verdict{
			Status:     model.StatusVerified,
			Confidence: clamp(confidence, 15, 98),
			Reasoning: fmt.Sprintf("Cross-referenced with %s; %d support the claim.",
				sources, t.supports),
		}
	case t.contradicts > t.supports:
		confidence := 40 - 5*(t.contradicts-1) + 5*t.supports
		verdict = model.Verdict{
			Status:     model.StatusContradicted,
			Confidence: clamp(confidence, 15, 40),
			Reasoning: fmt.Sprintf("Found conflicting information: %d of %s dispute the claim.",
				t.contradicts, sources),
		}
	default:
		confidence := 40 + 5*min(t.neutral, 3)
		if t.supports > 0 {
			confidence = 50
		}
		verdict = model.Verdict{
			Status:     model.StatusInconclusive,
			Confidence: clamp(confidence, 40, 59),
			Reasoning: fmt.Sprintf("Insufficient corroborating evidence across %s; the claim needs additional sources.",
				sources),
		}
	}

	if t.dead > 0 {
		verdict.Reasoning += fmt.Sprintf(" %s could not be reached.", pluralize(t.dead, "source"))
	}
	return verdict, nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
