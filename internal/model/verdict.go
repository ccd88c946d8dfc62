package model

import "fmt"

// RejectionKind classifies why a citation was refused at some stage
type RejectionKind string

const (
	RejectFormat             RejectionKind = "format"              // Identifier or field shape invalid
	RejectEligibility        RejectionKind = "eligibility"         // No identifier and no source name
	RejectTransport          RejectionKind = "transport"           // Network failure or undecodable response
	RejectNotFound           RejectionKind = "not_found"           // Registry does not know the identifier
	RejectMetadataIncomplete RejectionKind = "metadata_incomplete" // Registry record lacks journal or year
	RejectConsistency        RejectionKind = "consistency"         // Registry record contradicts the claim
	RejectAuthorization      RejectionKind = "authorization"       // Source not on the review allow-list
)

// Rejection is the terminal failure of one verification strategy
type Rejection struct {
	Kind   RejectionKind `json:"kind"`
	Reason string        `json:"reason"`
}

// Verdict is the outcome of running one strategy against one citation.
// A verified verdict at the primary tier always carries registry metadata.
type Verdict struct {
	Verified  bool
	Tier      Tier
	Metadata  *RegistryMetadata
	Rejection *Rejection
}

// NewVerified returns an accepting verdict at the given tier
func NewVerified(tier Tier, meta *RegistryMetadata) Verdict {
	return Verdict{Verified: true, Tier: tier, Metadata: meta}
}

// NewRejected returns a failing verdict with the given kind and reason
func NewRejected(kind RejectionKind, reason string) Verdict {
	return Verdict{Rejection: &Rejection{Kind: kind, Reason: reason}}
}

// NewRejectedf is NewRejected with a formatted reason
func NewRejectedf(kind RejectionKind, format string, args ...interface{}) Verdict {
	return NewRejected(kind, fmt.Sprintf(format, args...))
}
