package extract

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/veritas/internal/model"
)

const (
	// DefaultMaxClaims bounds downstream retrieval and verification cost
	DefaultMaxClaims = 10
	// DefaultMinLength is the character floor; fragments at or below it are dropped
	DefaultMinLength = 10
)

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// ClaimExtractor splits text into sentence-level claims
type ClaimExtractor struct {
	maxClaims int
	minLength int
}

// NewClaimExtractor creates a new claim extractor.
// Non-positive limits fall back to the defaults.
func NewClaimExtractor(maxClaims, minLength int) *ClaimExtractor {
	if maxClaims <= 0 {
		maxClaims = DefaultMaxClaims
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &ClaimExtractor{
		maxClaims: maxClaims,
		minLength: minLength,
	}
}

// Name returns the extractor name
func (e *ClaimExtractor) Name() string {
	return "sentence"
}

// Extract splits text on sentence terminators. It never fails.
func (e *ClaimExtractor) Extract(_ context.Context, text string) ([]model.Claim, error) {
	return e.Split(text), nil
}

// Split is the pure form of Extract
func (e *ClaimExtractor) Split(text string) []model.Claim {
	if strings.TrimSpace(text) == "" {
		return []model.Claim{}
	}
	return e.normalize(sentenceTerminators.Split(text, -1))
}

// normalize trims fragments, drops short ones and caps the count,
// assigning positions in the surviving order
func (e *ClaimExtractor) normalize(fragments []string) []model.Claim {
	claims := make([]model.Claim, 0, e.maxClaims)
	for _, fragment := range fragments {
		text := strings.TrimSpace(fragment)
		if utf8.RuneCountInString(text) <= e.minLength {
			continue
		}
		claims = append(claims, model.Claim{
			Text:     text,
			Position: len(claims),
		})
		if len(claims) == e.maxClaims {
			break
		}
	}
	return claims
}
