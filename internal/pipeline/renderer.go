package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/longevityfoodlab/citegate/internal/model"
)

// Renderer writes verification results to files and terminals
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// reportDocument is the on-disk JSON shape: the released citations plus the
// diagnostic report that explains them
type reportDocument struct {
	ReleasedCitations []model.VerifiedCitation `json:"releasedCitations"`
	Report            *model.Report            `json:"report"`
}

// PayloadJSON encodes the released citations in the same envelope shape the
// input payloads use, so verified output can feed the same consumers.
func (r *Renderer) PayloadJSON(released []model.VerifiedCitation) ([]byte, error) {
	if released == nil {
		released = []model.VerifiedCitation{}
	}
	doc := struct {
		ResearchEvidence []model.VerifiedCitation `json:"researchEvidence"`
	}{ResearchEvidence: released}
	return json.MarshalIndent(doc, "", "  ")
}

// RenderJSON writes the full report document to the given path
func (r *Renderer) RenderJSON(report *model.Report, released []model.VerifiedCitation, path string) error {
	if released == nil {
		released = []model.VerifiedCitation{}
	}
	data, err := json.MarshalIndent(reportDocument{
		ReleasedCitations: released,
		Report:            report,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report to the given path
func (r *Renderer) RenderMarkdown(report *model.Report, released []model.VerifiedCitation, path string) error {
	var b strings.Builder

	b.WriteString("# Citation Verification Report\n\n")
	if report.Source != "" {
		fmt.Fprintf(&b, "**Source:** %s\n", report.Source)
	}
	fmt.Fprintf(&b, "**Generated:** %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "**Quality Index:** %d/100 (%s confidence)\n\n", report.Score.Index, report.Score.Confidence)

	if !report.Enabled {
		b.WriteString("Verification was disabled for this run. No citations were released.\n")
		return os.WriteFile(path, []byte(b.String()), 0644)
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Total citations: %d\n", report.Total)
	fmt.Fprintf(&b, "- Verified primary: %d\n", report.VerifiedPrimary)
	fmt.Fprintf(&b, "- Authoritative review: %d\n", report.AuthoritativeReview)
	fmt.Fprintf(&b, "- Released: %d\n\n", report.Returned)

	if len(released) > 0 {
		b.WriteString("## Released Citations\n\n")
		for i, c := range released {
			fmt.Fprintf(&b, "### %d. %s\n\n", i+1, citationHeading(c))
			fmt.Fprintf(&b, "- Tier: %s\n", c.Tier)
			fmt.Fprintf(&b, "- Journal: %s (%d)\n", c.Journal, c.Year)
			if c.DOI != "" {
				fmt.Fprintf(&b, "- DOI: %s\n", c.DOI)
			}
			if c.PMID != "" {
				fmt.Fprintf(&b, "- PMID: %s\n", c.PMID)
			}
			if c.Registry != nil && c.Registry.Title != "" {
				fmt.Fprintf(&b, "- Registry title: %s\n", c.Registry.Title)
			}
			b.WriteString("\n")
		}
	}

	if len(report.Rejections) > 0 {
		b.WriteString("## Rejections\n\n")
		b.WriteString("| # | Strategy | Kind | Reason |\n")
		b.WriteString("|---|----------|------|--------|\n")
		for _, rej := range report.Rejections {
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", rej.Index, rej.Strategy, rej.Kind, rej.Reason)
		}
		b.WriteString("\n")
	}

	if len(report.FormatFindings) > 0 {
		b.WriteString("## Format Findings\n\n")
		for _, f := range report.FormatFindings {
			fmt.Fprintf(&b, "- Citation %d: %s\n", f.Index, f.Reason)
		}
		b.WriteString("\n")
	}

	if len(report.Audits) > 0 {
		b.WriteString("## Link Audits\n\n")
		b.WriteString("| URL | Accessible | Status | Notes |\n")
		b.WriteString("|-----|------------|--------|-------|\n")
		for _, a := range report.Audits {
			fmt.Fprintf(&b, "| %s | %t | %d | %s |\n", a.URL, a.IsAccessible, a.StatusCode, auditNotes(a))
		}
		b.WriteString("\n")
	}

	if len(report.Score.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, s := range report.Score.Signals {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", s.Type, s.Severity, s.Description)
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderSummary writes a terse batch summary suitable for a terminal
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	if !report.Enabled {
		fmt.Fprintf(w, "Verification disabled: 0 of %d citations released\n", report.Total)
		return
	}
	fmt.Fprintf(w, "Citations: %d total, %d verified primary, %d authoritative review, %d released\n",
		report.Total, report.VerifiedPrimary, report.AuthoritativeReview, report.Returned)
	fmt.Fprintf(w, "Quality index: %d/100 (%s confidence)\n", report.Score.Index, report.Score.Confidence)
}

// citationHeading picks the most descriptive single line for a citation
func citationHeading(c model.VerifiedCitation) string {
	if c.Title != "" {
		return c.Title
	}
	if c.Ingredient != "" && c.Outcome != "" {
		return fmt.Sprintf("%s and %s", c.Ingredient, c.Outcome)
	}
	return c.Journal
}

func auditNotes(a model.LinkAudit) string {
	var notes []string
	if a.IdentifierMismatch {
		notes = append(notes, "identifier mismatch")
	}
	if a.RedirectURL != "" {
		notes = append(notes, "redirected")
	}
	if a.Error != "" {
		notes = append(notes, a.Error)
	}
	return strings.Join(notes, "; ")
}
