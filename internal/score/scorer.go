package score

import (
	"fmt"
	"math"

	"github.com/longevityfoodlab/citegate/internal/model"
)

// Scorer turns a batch's verification outcomes into a transparent quality
// score. The score never changes what is released; it summarizes how much of
// the batch survived and why the rest did not.
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate computes the quality index and diagnostic signals for one batch
func (s *Scorer) Calculate(batch []model.RawCitation, verified []model.VerifiedCitation, rejections []model.RejectionRecord, audits []model.LinkAudit) model.Score {
	var signals []model.Signal

	// 1. Verification rate (0-40 points)
	rateScore, rateSignal := s.calculateVerificationRate(batch, verified)
	signals = append(signals, rateSignal)

	// 2. Tier strength (0-30 points)
	tierScore, tierSignal := s.calculateTierStrength(verified)
	signals = append(signals, tierSignal)

	// 3. Identifier coverage (0-20 points)
	coverageScore, coverageSignal := s.calculateIdentifierCoverage(batch)
	signals = append(signals, coverageSignal)

	// 4. Registry availability (0-10 points)
	availScore, availSignal := s.calculateAvailability(batch, rejections)
	signals = append(signals, availSignal)

	// 5. Consistency failures (penalty)
	consistencyDetected, consistencySignal := s.detectConsistencyFailures(rejections)
	if consistencyDetected {
		signals = append(signals, consistencySignal)
	}

	// 6. Audit findings (informational)
	if auditSignal := s.summarizeAudits(audits); auditSignal.Type != "" {
		signals = append(signals, auditSignal)
	}

	totalScore := rateScore + tierScore + coverageScore + availScore

	if consistencyDetected {
		totalScore -= 10
		if totalScore < 0 {
			totalScore = 0
		}
	}

	confidence := s.determineConfidence(totalScore, len(batch), consistencyDetected)

	return model.Score{
		Index:      totalScore,
		Confidence: confidence,
		Signals:    signals,
	}
}

// calculateVerificationRate scores the share of the batch that verified (0-40)
func (s *Scorer) calculateVerificationRate(batch []model.RawCitation, verified []model.VerifiedCitation) (int, model.Signal) {
	if len(batch) == 0 {
		return 0, model.Signal{
			Type:        model.SignalVerificationRate,
			Severity:    model.SeverityCritical,
			Description: "Empty batch",
			Data:        map[string]interface{}{"total": 0},
		}
	}

	ratio := float64(len(verified)) / float64(len(batch))
	score := int(math.Min(ratio*40, 40))

	severity := model.SeverityInfo
	if ratio < 0.34 {
		severity = model.SeverityCritical
	} else if ratio < 0.67 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalVerificationRate,
		Severity:    severity,
		Description: fmt.Sprintf("Verified %d of %d citations", len(verified), len(batch)),
		Data: map[string]interface{}{
			"verified": len(verified),
			"total":    len(batch),
			"ratio":    ratio,
			"score":    score,
			"formula":  "min(verified / total * 40, 40)",
		},
	}
}

// calculateTierStrength scores the tier distribution of verified citations
// (0-30). Primary verifications weigh more than review-tier acceptances.
func (s *Scorer) calculateTierStrength(verified []model.VerifiedCitation) (int, model.Signal) {
	if len(verified) == 0 {
		return 0, model.Signal{
			Type:        model.SignalTierStrength,
			Severity:    model.SeverityWarning,
			Description: "No verified citations",
			Data:        map[string]interface{}{"verified": 0},
		}
	}

	primaryCount := 0
	reviewCount := 0
	for _, v := range verified {
		switch v.Tier {
		case model.TierVerifiedPrimary:
			primaryCount++
		case model.TierAuthoritativeReview:
			reviewCount++
		}
	}

	weightedSum := float64(primaryCount*3 + reviewCount*2)
	maxPossible := float64(len(verified) * 3)
	score := int((weightedSum / maxPossible) * 30)

	severity := model.SeverityInfo
	if primaryCount == 0 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalTierStrength,
		Severity:    severity,
		Description: fmt.Sprintf("Tier distribution: %d primary, %d review", primaryCount, reviewCount),
		Data: map[string]interface{}{
			"primary": primaryCount,
			"review":  reviewCount,
			"total":   len(verified),
			"score":   score,
			"formula": "(primary*3 + review*2) / (total*3) * 30",
		},
	}
}

// calculateIdentifierCoverage scores how much of the batch carries a strong
// identifier (0-20). Identifier-free batches can never reach the primary tier.
func (s *Scorer) calculateIdentifierCoverage(batch []model.RawCitation) (int, model.Signal) {
	if len(batch) == 0 {
		return 0, model.Signal{
			Type:        model.SignalIdentifierCoverage,
			Severity:    model.SeverityWarning,
			Description: "Empty batch",
			Data:        map[string]interface{}{"total": 0},
		}
	}

	withIdentifier := 0
	for _, c := range batch {
		if c.HasStrongIdentifier() {
			withIdentifier++
		}
	}

	ratio := float64(withIdentifier) / float64(len(batch))
	score := int(ratio * 20)

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalIdentifierCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Identifier coverage: %d/%d (%.0f%%)", withIdentifier, len(batch), ratio*100),
		Data: map[string]interface{}{
			"with_identifier": withIdentifier,
			"total":           len(batch),
			"ratio":           ratio,
			"score":           score,
			"formula":         "(with_identifier / total) * 20",
		},
	}
}

// calculateAvailability scores registry reachability during the run (0-10).
// Transport rejections say more about the registries than the citations.
func (s *Scorer) calculateAvailability(batch []model.RawCitation, rejections []model.RejectionRecord) (int, model.Signal) {
	if len(batch) == 0 {
		return 0, model.Signal{
			Type:        model.SignalRegistryAvailability,
			Severity:    model.SeverityWarning,
			Description: "Empty batch",
			Data:        map[string]interface{}{"total": 0},
		}
	}

	transportCount := 0
	for _, r := range rejections {
		if r.Kind == model.RejectTransport {
			transportCount++
		}
	}

	ratio := math.Min(float64(transportCount)/float64(len(batch)), 1.0)
	score := 10 - int(ratio*10)

	severity := model.SeverityInfo
	if ratio > 0.5 {
		severity = model.SeverityCritical
	} else if ratio > 0 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalRegistryAvailability,
		Severity:    severity,
		Description: fmt.Sprintf("Transport failures: %d across %d citations", transportCount, len(batch)),
		Data: map[string]interface{}{
			"transport_failures": transportCount,
			"total":              len(batch),
			"score":              score,
			"formula":            "10 - min(transport_failures / total, 1) * 10",
		},
	}
}

// detectConsistencyFailures flags registry contradictions. A citation whose
// registry record disagrees on year or author is worse than one the registry
// simply does not know.
func (s *Scorer) detectConsistencyFailures(rejections []model.RejectionRecord) (bool, model.Signal) {
	consistencyCount := 0
	for _, r := range rejections {
		if r.Kind == model.RejectConsistency {
			consistencyCount++
		}
	}

	if consistencyCount == 0 {
		return false, model.Signal{}
	}

	return true, model.Signal{
		Type:        model.SignalConsistencyFailures,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d citation(s) contradicted by registry records", consistencyCount),
		Data: map[string]interface{}{
			"consistency_failures": consistencyCount,
			"penalty":              10,
		},
	}
}

// summarizeAudits reports dead or mismatched convenience links. Audits never
// move the score; they exist so reviewers can spot suspect links.
func (s *Scorer) summarizeAudits(audits []model.LinkAudit) model.Signal {
	if len(audits) == 0 {
		return model.Signal{}
	}

	deadCount := 0
	mismatchCount := 0
	for _, a := range audits {
		if !a.IsAccessible {
			deadCount++
		}
		if a.IdentifierMismatch {
			mismatchCount++
		}
	}

	severity := model.SeverityInfo
	if mismatchCount > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalAuditFindings,
		Severity:    severity,
		Description: fmt.Sprintf("Link audits: %d dead, %d identifier mismatches of %d checked", deadCount, mismatchCount, len(audits)),
		Data: map[string]interface{}{
			"checked":    len(audits),
			"dead":       deadCount,
			"mismatched": mismatchCount,
		},
	}
}

// determineConfidence maps the score to a confidence label
func (s *Scorer) determineConfidence(score int, batchSize int, consistencyDetected bool) string {
	if consistencyDetected {
		return "low-medium"
	}

	if batchSize < 3 {
		return "low"
	}

	if score >= 80 {
		return "high"
	} else if score >= 60 {
		return "medium"
	}
	return "low"
}
