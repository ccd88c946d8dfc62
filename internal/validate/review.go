package validate

import (
	"fmt"
	"strings"

	"github.com/longevityfoodlab/citegate/internal/model"
)

// ReviewClassifier decides whether a citation without a registry match can be
// released at the authoritative-review tier. Everything it trusts comes from
// the configured allow-list.
type ReviewClassifier struct {
	config       *model.ReviewConfig
	journals     []string
	institutions []string
	causalTerms  []string
}

// NewReviewClassifier creates a classifier from the review configuration
func NewReviewClassifier(config *model.ReviewConfig) *ReviewClassifier {
	if config == nil {
		config = &model.DefaultConfig().Review
	}

	classifier := &ReviewClassifier{
		config:       config,
		journals:     make([]string, 0, len(config.Journals)),
		institutions: make([]string, 0, len(config.Institutions)),
		causalTerms:  make([]string, 0, len(config.CausalTerms)),
	}

	for _, name := range config.Journals {
		classifier.journals = append(classifier.journals, strings.ToLower(name))
	}
	for _, name := range config.Institutions {
		classifier.institutions = append(classifier.institutions, strings.ToLower(name))
	}
	for _, term := range config.CausalTerms {
		classifier.causalTerms = append(classifier.causalTerms, strings.ToLower(term))
	}

	return classifier
}

// Classify evaluates one citation for the review tier. Review verdicts never
// carry registry metadata; display falls back to the claimed fields.
func (r *ReviewClassifier) Classify(c model.RawCitation) model.Verdict {
	source := strings.ToLower(c.Journal)
	if source == "" {
		return model.NewRejected(model.RejectAuthorization, "source name missing")
	}

	if !r.matchesList(source, r.journals) && !r.matchesList(source, r.institutions) {
		return model.NewRejectedf(model.RejectAuthorization,
			"%q is not a recognized review journal or institution", c.Journal)
	}

	// Allow-listed sources still cannot carry causal claims; those need a
	// registry-verified primary citation.
	if term := r.causalTerm(c.Outcome); term != "" {
		return model.NewRejectedf(model.RejectAuthorization,
			"claim wording %q is too strong for an unverified source", term)
	}

	return model.NewVerified(model.TierAuthoritativeReview, nil)
}

// matchesList checks the source against an allow-list using case-insensitive
// containment in either direction, so "The Lancet" matches a configured
// "Lancet" and vice versa. Very short list entries can over-match.
func (r *ReviewClassifier) matchesList(source string, list []string) bool {
	for _, name := range list {
		if name == "" {
			continue
		}
		if strings.Contains(source, name) || strings.Contains(name, source) {
			return true
		}
	}
	return false
}

// causalTerm returns the first configured causal term the outcome wording
// contains, or empty when the claim is acceptably hedged.
func (r *ReviewClassifier) causalTerm(outcome string) string {
	lower := strings.ToLower(outcome)
	for _, term := range r.causalTerms {
		if term != "" && strings.Contains(lower, term) {
			return term
		}
	}
	return ""
}

// TrustedSources returns a printable summary of the active allow-list
func (r *ReviewClassifier) TrustedSources() string {
	return fmt.Sprintf("%d journals, %d institutions",
		len(r.journals), len(r.institutions))
}
