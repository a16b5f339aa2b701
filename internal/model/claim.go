package model

import "strings"

// Claim represents a single factual statement extracted from a submission
type Claim struct {
	Text     string `json:"text"`     // Trimmed claim text
	Position int    `json:"position"` // Index in the extraction order (0-based)
}

// Status is the verification outcome of a claim
type Status string

const (
	StatusVerified     Status = "verified"
	StatusContradicted Status = "contradicted"
	StatusInconclusive Status = "inconclusive"
)

// IsValid reports whether s is one of the three recognized statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusVerified, StatusContradicted, StatusInconclusive:
		return true
	default:
		return false
	}
}

// NormalizeStatus maps any external status string onto the closed status set.
// Unknown, empty or malformed values become StatusInconclusive.
func NormalizeStatus(raw string) Status {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if s.IsValid() {
		return s
	}
	return StatusInconclusive
}

// ClampConfidence bounds a confidence score to [0, 100]
func ClampConfidence(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
