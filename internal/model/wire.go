package model

// VerifyRequest is the JSON body of POST /verify
type VerifyRequest struct {
	Text string `json:"text"`
}

// WireClaim is one claim entry of the /verify response
type WireClaim struct {
	OriginalText   string `json:"original_text"`
	Status         string `json:"status"`
	Confidence     int    `json:"confidence_score"`
	Reasoning      string `json:"reasoning"`
	EvidenceSource string `json:"evidence_source,omitempty"`
	SourceURL      string `json:"source_url,omitempty"`
}

// VerifyResponse is the JSON body of a successful /verify response
type VerifyResponse struct {
	OverallTrustScore int         `json:"overall_trust_score"`
	Claims            []WireClaim `json:"claims"`
}

// ErrorResponse is the JSON body of a failed /verify response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Wire converts a report into the /verify response shape
func (r *Report) Wire() VerifyResponse {
	resp := VerifyResponse{
		OverallTrustScore: r.OverallTrustScore,
		Claims:            make([]WireClaim, 0, len(r.Claims)),
	}
	for _, c := range r.Claims {
		resp.Claims = append(resp.Claims, WireClaim{
			OriginalText:   c.Claim.Text,
			Status:         string(c.Status),
			Confidence:     c.Confidence,
			Reasoning:      c.Reasoning,
			EvidenceSource: c.EvidenceSource,
			SourceURL:      c.SourceURL,
		})
	}
	return resp
}

// ClaimResults converts a /verify response into normalized claim results.
// Positions follow response order; statuses and scores are normalized.
func (v VerifyResponse) ClaimResults() []ClaimResult {
	results := make([]ClaimResult, 0, len(v.Claims))
	for i, c := range v.Claims {
		r := ClaimResult{
			Claim:          Claim{Text: c.OriginalText, Position: i},
			Status:         NormalizeStatus(c.Status),
			Confidence:     ClampConfidence(c.Confidence),
			Reasoning:      c.Reasoning,
			EvidenceSource: c.EvidenceSource,
			SourceURL:      c.SourceURL,
		}
		if r.Reasoning == "" {
			r.Reasoning = "No reasoning was provided for this verdict."
		}
		if c.SourceURL != "" || c.EvidenceSource != "" {
			r.EvidenceCount = 1
		}
		results = append(results, r)
	}
	return results
}
