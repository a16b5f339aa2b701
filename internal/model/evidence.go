package model

// EvidenceItem is a single source excerpt gathered for a claim
type EvidenceItem struct {
	SourceURL string        `json:"source_url,omitempty"` // Absolute URL, empty when no source is known
	Title     string        `json:"title,omitempty"`      // Source title if the backend provides one
	Snippet   string        `json:"snippet"`              // Short excerpt attributed to the source
	Stance    Stance        `json:"stance,omitempty"`     // Relation of the excerpt to the claim
	Authority AuthorityTier `json:"authority,omitempty"`  // Source authority classification
	Reachable *bool         `json:"reachable,omitempty"`  // Set only when source checking is enabled
}

// Stance describes how an evidence item relates to its claim
type Stance string

// StanceUnknown means the backend did not judge the excerpt; verifiers
// may classify it themselves. StanceNeutral is an explicit judgement
// that the excerpt neither supports nor disputes the claim.
const (
	StanceUnknown     Stance = ""
	StanceSupports    Stance = "supports"
	StanceContradicts Stance = "contradicts"
	StanceNeutral     Stance = "neutral"
)

// NormalizeStance maps unrecognized stances to unknown
func NormalizeStance(s Stance) Stance {
	switch s {
	case StanceSupports, StanceContradicts, StanceNeutral:
		return s
	default:
		return StanceUnknown
	}
}

// IsDead reports whether the source was checked and found unreachable
func (e EvidenceItem) IsDead() bool {
	return e.Reachable != nil && !*e.Reachable
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Laws, statutes, academic papers, official documents
	TierSecondary AuthorityTier = 2 // Encyclopedias, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites, everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}
