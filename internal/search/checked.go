package search

import (
	"context"

	"github.com/ppiankov/veritas/internal/model"
	"github.com/ppiankov/veritas/internal/validate"
)

// Checked marks each evidence item reachable or not after retrieval
type Checked struct {
	next    Retriever
	checker *validate.SourceChecker
}

// NewChecked wraps next with source reachability checks
func NewChecked(next Retriever, checker *validate.SourceChecker) *Checked {
	return &Checked{next: next, checker: checker}
}

// Name returns the wrapped retriever name
func (c *Checked) Name() string {
	return c.next.Name()
}

// Retrieve delegates, then probes every source URL
func (c *Checked) Retrieve(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	items, err := c.next.Retrieve(ctx, claim)
	if err != nil || len(items) == 0 {
		return items, err
	}
	return c.checker.Check(ctx, items), nil
}
