package model

import "time"

// Verdict holds the core fields produced by a claim verifier
type Verdict struct {
	Status     Status `json:"status"`
	Confidence int    `json:"confidence_score"`
	Reasoning  string `json:"reasoning"`
}

// ClaimResult is the verification outcome for one claim
type ClaimResult struct {
	Claim          Claim  `json:"claim"`
	Status         Status `json:"status"`
	Confidence     int    `json:"confidence_score"`
	Reasoning      string `json:"reasoning"`
	EvidenceSource string `json:"evidence_source,omitempty"` // Snippet of the first evidence item
	SourceURL      string `json:"source_url,omitempty"`      // URL of the first evidence item
	EvidenceCount  int    `json:"evidence_count"`
}

// NewClaimResult assembles a result from a verdict and the evidence it was based on.
// The verdict is normalized so that no invalid status or score escapes.
func NewClaimResult(claim Claim, verdict Verdict, evidence []EvidenceItem) ClaimResult {
	result := ClaimResult{
		Claim:         claim,
		Status:        NormalizeStatus(string(verdict.Status)),
		Confidence:    ClampConfidence(verdict.Confidence),
		Reasoning:     verdict.Reasoning,
		EvidenceCount: len(evidence),
	}
	if result.Reasoning == "" {
		result.Reasoning = "No reasoning was provided for this verdict."
	}
	if len(evidence) > 0 {
		result.EvidenceSource = evidence[0].Snippet
		result.SourceURL = evidence[0].SourceURL
	}
	return result
}

// Report is the complete verification report for one submission
type Report struct {
	ID                string        `json:"id,omitempty"`
	CreatedAt         time.Time     `json:"created_at,omitzero"`
	OverallTrustScore int           `json:"overall_trust_score"`
	Label             string        `json:"label,omitempty"`
	Stats             Stats         `json:"stats"`
	Claims            []ClaimResult `json:"claims"`
}

// Stats summarizes status counts across a report
type Stats struct {
	Total        int `json:"total"`
	Verified     int `json:"verified"`
	Contradicted int `json:"contradicted"`
	Inconclusive int `json:"inconclusive"`
}

// ProgressEvent is an ephemeral notification about pipeline advancement
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
	Detail  string `json:"detail,omitempty"`
}

// ProgressFunc receives progress events for a single run
type ProgressFunc func(ProgressEvent)
