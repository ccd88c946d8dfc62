package model

// EvidencePayload is the wire envelope assistants emit for research citations
type EvidencePayload struct {
	ResearchEvidence []RawCitation `json:"researchEvidence"`
}

// RawCitation is a single untrusted citation claim as it arrives from an
// assistant. Nothing in it can be taken at face value until verification.
type RawCitation struct {
	Ingredient string `json:"ingredient"`      // Food or supplement the claim is about
	Nutrient   string `json:"nutrient"`        // Active compound or nutrient
	Outcome    string `json:"outcome"`         // Claimed health outcome
	Authors    string `json:"authors"`         // First author family name
	Year       int    `json:"year"`            // Claimed publication year
	Journal    string `json:"journal"`         // Journal or institution name
	DOI        string `json:"doi,omitempty"`   // Digital Object Identifier
	PMID       string `json:"pmid,omitempty"`  // PubMed identifier
	URL        string `json:"url,omitempty"`   // Convenience link, never trusted
	Title      string `json:"title,omitempty"` // Claimed article title
}

// HasStrongIdentifier reports whether the citation carries a registry-checkable
// identifier.
func (c RawCitation) HasStrongIdentifier() bool {
	return c.DOI != "" || c.PMID != ""
}

// Identifier returns the strongest identifier present, preferring the PMID.
func (c RawCitation) Identifier() string {
	if c.PMID != "" {
		return c.PMID
	}
	return c.DOI
}

// VerificationStatus marks where a citation stands in the pipeline
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// Tier represents the credibility level an accepted citation is released at
type Tier int

const (
	TierUnknown             Tier = 0 // Not yet classified
	TierVerifiedPrimary     Tier = 1 // Confirmed against an external registry
	TierAuthoritativeReview Tier = 2 // Trusted review source, no registry match
	TierContextualReference Tier = 3 // Background material, never released
)

func (t Tier) String() string {
	switch t {
	case TierVerifiedPrimary:
		return "verified_primary"
	case TierAuthoritativeReview:
		return "authoritative_review"
	case TierContextualReference:
		return "contextual_reference"
	default:
		return "unknown"
	}
}

// RegistryMetadata holds the bibliographic facts a registry confirmed.
// For primary-tier citations these override the claimed display fields.
type RegistryMetadata struct {
	Journal string `json:"journal"`
	Year    int    `json:"year"`
	Title   string `json:"title,omitempty"`
}

// VerifiedCitation is a citation that survived verification. Journal and year
// are registry values at the primary tier and claimed values at the review
// tier; the claimed title is always retained.
type VerifiedCitation struct {
	RawCitation
	Status   VerificationStatus `json:"verificationStatus"`
	Tier     Tier               `json:"citationTier"`
	Registry *RegistryMetadata  `json:"registryMetadata,omitempty"`
}

// LinkAudit records the accessibility check of one cited convenience URL.
// Audits inform the report only; verdicts never depend on them.
type LinkAudit struct {
	URL                string `json:"url"`
	IsAccessible       bool   `json:"is_accessible"`
	StatusCode         int    `json:"status_code,omitempty"`
	RedirectURL        string `json:"redirect_url,omitempty"` // If redirected
	MetaDOI            string `json:"meta_doi,omitempty"`     // citation_doi tag on the landing page
	MetaPMID           string `json:"meta_pmid,omitempty"`    // citation_pmid tag on the landing page
	IdentifierMismatch bool   `json:"identifier_mismatch,omitempty"`
	Error              string `json:"error,omitempty"`
}
