package pipeline

import (
	"context"

	"github.com/ppiankov/veritas/internal/model"
)

// Extractor splits a submission into claims
type Extractor interface {
	Extract(ctx context.Context, text string) ([]model.Claim, error)
}

// Retriever gathers evidence for one claim
type Retriever interface {
	Retrieve(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error)
}

// Verifier judges one claim against its evidence
type Verifier interface {
	Verify(ctx context.Context, claim model.Claim, evidence []model.EvidenceItem) (model.Verdict, error)
}

// Backend is everything a pipeline run needs from the outside world
type Backend interface {
	Extractor
	Retriever
	Verifier
}

// Stack composes independent stage implementations into a Backend
type Stack struct {
	Extractor
	Retriever
	Verifier
}

var _ Backend = Stack{}
