package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/veritas/internal/model"
)

// Trust band labels
const (
	LabelHighlyVerified = "HIGHLY VERIFIED"
	LabelHigh           = "HIGH CONFIDENCE"
	LabelModerate       = "MODERATE CONFIDENCE"
	LabelLow            = "LOW CONFIDENCE"
)

// Strategy maps one claim result to the value that enters the mean
type Strategy func(model.ClaimResult) int

// MeanConfidence averages the confidence scores as reported
func MeanConfidence(r model.ClaimResult) int {
	return r.Confidence
}

// StatusWeighted counts verified claims at their confidence,
// contradicted claims as 0 and inconclusive claims as 50
func StatusWeighted(r model.ClaimResult) int {
	switch r.Status {
	case model.StatusVerified:
		return r.Confidence
	case model.StatusContradicted:
		return 0
	default:
		return 50
	}
}

// Aggregator turns per-claim results into the overall trust score
type Aggregator struct {
	strategy Strategy
	name     string
}

// NewAggregator returns the aggregator for name ("mean" or "status")
func NewAggregator(name string) (*Aggregator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mean":
		return &Aggregator{strategy: MeanConfidence, name: "mean"}, nil
	case "status":
		return &Aggregator{strategy: StatusWeighted, name: "status"}, nil
	default:
		return nil, fmt.Errorf("unknown aggregation strategy: %q (supported: mean, status)", name)
	}
}

// Name returns the strategy name
func (a *Aggregator) Name() string {
	return a.name
}

// Aggregate returns the rounded-half-up mean of the strategy values, clamped to [0, 100].
// An empty result set scores 0.
func (a *Aggregator) Aggregate(results []model.ClaimResult) int {
	n := len(results)
	if n == 0 {
		return 0
	}

	sum := 0
	for _, r := range results {
		sum += model.ClampConfidence(a.strategy(r))
	}
	// Integer round half up: floor((2*sum + n) / 2n)
	return model.ClampConfidence((2*sum + n) / (2 * n))
}

// Label returns the trust band for a score
func Label(score int) string {
	switch {
	case score >= 90:
		return LabelHighlyVerified
	case score >= 70:
		return LabelHigh
	case score >= 40:
		return LabelModerate
	default:
		return LabelLow
	}
}

// Tally counts results by status
func Tally(results []model.ClaimResult) model.Stats {
	stats := model.Stats{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case model.StatusVerified:
			stats.Verified++
		case model.StatusContradicted:
			stats.Contradicted++
		default:
			stats.Inconclusive++
		}
	}
	return stats
}
