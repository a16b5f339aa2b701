package search

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/ppiankov/veritas/internal/model"
)

type syntheticSource struct {
	domain string
	kind   string
}

var syntheticSources = []syntheticSource{
	{domain: "wikipedia.org", kind: "encyclopedia"},
	{domain: "nature.com", kind: "scientific"},
	{domain: "reuters.com", kind: "news"},
	{domain: "gov.edu", kind: "government"},
}

// Synthetic produces one deterministic stand-in evidence item per claim.
// It needs no network and is the default for local runs and demos.
// Its items are marked neutral since they only restate the claim.
type Synthetic struct{}

// NewSynthetic creates a synthetic retriever
func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

// Name returns the retriever name
func (s *Synthetic) Name() string {
	return "synthetic"
}

// Retrieve picks a source by hashing the claim text
func (s *Synthetic) Retrieve(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(claim.Text))
	sum := h.Sum32()
	source := syntheticSources[sum%uint32(len(syntheticSources))]

	return []model.EvidenceItem{{
		SourceURL: fmt.Sprintf("https://%s/article/%08x", source.domain, sum),
		Title:     source.domain,
		Snippet:   fmt.Sprintf("Evidence from %s source regarding: \"%s...\"", source.kind, truncateRunes(claim.Text, 50)),
		Stance:    model.StanceNeutral,
	}}, nil
}
