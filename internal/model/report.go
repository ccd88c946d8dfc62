package model

import "time"

// Report is the diagnostic trail for one verification batch. The released
// citation set is the caller's result; everything here is observability.
type Report struct {
	Source      string    `json:"source,omitempty"` // Payload file or "-" for stdin
	GeneratedAt time.Time `json:"generated_at"`
	Enabled     bool      `json:"enabled"` // Whether verification ran at all

	Total               int `json:"total_citations"`
	VerifiedPrimary     int `json:"verified_primary"`
	AuthoritativeReview int `json:"authoritative_review"`
	Returned            int `json:"returned"` // After the batch tier selection

	FormatFindings []FormatFinding   `json:"format_findings,omitempty"` // Structural problems, non-gating
	Rejections     []RejectionRecord `json:"rejections,omitempty"`      // Every failed strategy attempt
	Audits         []LinkAudit       `json:"link_audits,omitempty"`     // Convenience URL checks

	Score  Score  `json:"score"`
	Policy Policy `json:"policy"`
}

// RejectionRecord ties a Rejection back to a batch position and strategy
type RejectionRecord struct {
	Index      int           `json:"index"`                // Position in the input batch
	Identifier string        `json:"identifier,omitempty"` // DOI or PMID the strategy used
	Strategy   string        `json:"strategy"`             // eligibility, pmid, doi, review, pipeline
	Kind       RejectionKind `json:"kind"`
	Reason     string        `json:"reason"`
}

// FormatFinding notes a structural defect in a claimed citation. Findings are
// diagnostics; the registry strategies decide independently.
type FormatFinding struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Score is the transparent quality breakdown for a batch
type Score struct {
	Index      int      `json:"index"`      // Overall quality (0-100)
	Confidence string   `json:"confidence"` // "low", "medium", "high"
	Signals    []Signal `json:"signals"`    // Diagnostic signals with transparent data
}

// Signal is one diagnostic observation with its scoring inputs exposed
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // Formulas and raw inputs
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalVerificationRate     SignalType = "verification_rate"     // Share of batch that verified
	SignalTierStrength         SignalType = "tier_strength"         // Primary vs review balance
	SignalIdentifierCoverage   SignalType = "identifier_coverage"   // Share carrying DOI or PMID
	SignalRegistryAvailability SignalType = "registry_availability" // Transport failure rate
	SignalConsistencyFailures  SignalType = "consistency_failures"  // Registry contradictions
	SignalAuditFindings        SignalType = "audit_findings"        // Dead or mismatched links
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Policy documents the non-negotiable rules the pipeline applied
type Policy struct {
	FailClosed       bool `json:"fail_closed"`        // Unverifiable evidence is dropped, never flagged
	RegistrySourced  bool `json:"registry_sourced"`   // Primary display fields come from the registry
	SingleTierOutput bool `json:"single_tier_output"` // One credibility level per batch
}

// DefaultPolicy returns the standard verification policy
func DefaultPolicy() Policy {
	return Policy{
		FailClosed:       true,
		RegistrySourced:  true,
		SingleTierOutput: true,
	}
}
