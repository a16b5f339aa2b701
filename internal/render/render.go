// Package render writes verification reports as JSON, Markdown and terminal summaries.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/veritas/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════"

// Renderer renders reports
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes report as indented JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder
	r.WriteMarkdown(&b, report)
	return writeFile(path, []byte(b.String()))
}

// WriteMarkdown renders report as Markdown to w
func (r *Renderer) WriteMarkdown(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "# Verification Report\n\n")
	fmt.Fprintf(w, "**Trust score:** %d/100 (%s)\n\n", report.OverallTrustScore, report.Label)
	if report.ID != "" {
		fmt.Fprintf(w, "- Run: `%s`\n", report.ID)
	}
	if !report.CreatedAt.IsZero() {
		fmt.Fprintf(w, "- Created: %s\n", report.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(w, "- Claims: %d (verified %d, contradicted %d, inconclusive %d)\n\n",
		report.Stats.Total, report.Stats.Verified, report.Stats.Contradicted, report.Stats.Inconclusive)

	if len(report.Claims) == 0 {
		fmt.Fprintf(w, "_No verifiable claims were found._\n")
	} else {
		fmt.Fprintf(w, "## Claims\n\n")
		fmt.Fprintf(w, "| # | Claim | Status | Confidence |\n")
		fmt.Fprintf(w, "|---|-------|--------|------------|\n")
		for _, c := range report.Claims {
			fmt.Fprintf(w, "| %d | %s | %s | %d |\n", c.Claim.Position+1, escapeCell(c.Claim.Text), strings.ToUpper(string(c.Status)), c.Confidence)
		}
		fmt.Fprintf(w, "\n## Details\n")
		for _, c := range report.Claims {
			fmt.Fprintf(w, "\n### %d. %s\n\n", c.Claim.Position+1, c.Claim.Text)
			fmt.Fprintf(w, "%s %s, confidence %d\n\n", statusIcon(c.Status), strings.ToUpper(string(c.Status)), c.Confidence)
			fmt.Fprintf(w, "%s\n", c.Reasoning)
			if c.SourceURL != "" {
				fmt.Fprintf(w, "\nSource: <%s>\n", c.SourceURL)
			}
			if c.EvidenceSource != "" {
				fmt.Fprintf(w, "\n> %s\n", c.EvidenceSource)
			}
		}
	}

	if r.includeFooter {
		fmt.Fprintf(w, "\n---\n\n_Generated by Veritas. Scores describe how well claims are supported by the evidence found, not whether they are true._\n")
	}
}

// RenderSummary prints a terminal summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	r.WriteSummary(os.Stdout, report)
}

// WriteSummary writes a terminal summary to w
func (r *Renderer) WriteSummary(w io.Writer, report *model.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Trust Score: %d/100  %s\n", report.OverallTrustScore, report.Label)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	if len(report.Claims) == 0 {
		fmt.Fprintln(w, "  No verifiable claims found.")
		fmt.Fprintln(w)
		return
	}

	for _, c := range report.Claims {
		fmt.Fprintf(w, "  %s [%3d] %s\n", statusIcon(c.Status), c.Confidence, c.Claim.Text)
		fmt.Fprintf(w, "        %s\n", c.Reasoning)
		if c.SourceURL != "" {
			fmt.Fprintf(w, "        %s\n", c.SourceURL)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Verified: %d  Contradicted: %d  Inconclusive: %d\n",
		report.Stats.Verified, report.Stats.Contradicted, report.Stats.Inconclusive)
	fmt.Fprintln(w)
}

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusVerified:
		return "✓"
	case model.StatusContradicted:
		return "✗"
	default:
		return "?"
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
