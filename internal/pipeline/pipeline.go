package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/longevityfoodlab/citegate/internal/cache"
	"github.com/longevityfoodlab/citegate/internal/extract"
	"github.com/longevityfoodlab/citegate/internal/model"
	"github.com/longevityfoodlab/citegate/internal/registry"
	"github.com/longevityfoodlab/citegate/internal/score"
	"github.com/longevityfoodlab/citegate/internal/validate"
)

// Pipeline orchestrates the complete verification pass
type Pipeline struct {
	verifier *registry.Verifier
	pubmed   registry.Scheme
	crossref registry.Scheme
	review   *validate.ReviewClassifier
	auditor  *validate.LinkAuditor // Optional link audit (nil if disabled)
	scorer   *score.Scorer
	config   *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	var auditor *validate.LinkAuditor
	if cfg.Audit.Enabled {
		auditor = validate.NewLinkAuditor(cfg)
	}

	return &Pipeline{
		verifier: registry.NewVerifier(cfg, cache.New(cfg.Cache)),
		pubmed:   registry.NewPubMedScheme(cfg.Registry.PubMedBaseURL, cfg.Registry.PubMedResolverURL),
		crossref: registry.NewCrossrefScheme(cfg.Registry.CrossrefBaseURL, cfg.Registry.DOIResolverURL),
		review:   validate.NewReviewClassifier(&cfg.Review),
		auditor:  auditor,
		scorer:   score.NewScorer(),
		config:   cfg,
	}
}

// outcome is everything one citation produced on its way through the ladder
type outcome struct {
	verified   *model.VerifiedCitation
	rejections []model.RejectionRecord
	finding    *model.FormatFinding
}

// Verify checks a batch and returns the releasable citations. Citations that
// cannot be confirmed are dropped, never returned with a warning.
func (p *Pipeline) Verify(ctx context.Context, batch []model.RawCitation) []model.VerifiedCitation {
	released, _ := p.VerifyWithReport(ctx, batch)
	return released
}

// VerifyWithReport checks a batch and returns the releasable citations along
// with the full diagnostic report.
func (p *Pipeline) VerifyWithReport(ctx context.Context, batch []model.RawCitation) ([]model.VerifiedCitation, *model.Report) {
	report := &model.Report{
		GeneratedAt: time.Now().UTC(),
		Enabled:     p.config.Verification.Enabled,
		Total:       len(batch),
		Policy:      model.DefaultPolicy(),
	}

	// Verification off means nothing is trusted, not that everything is
	if !p.config.Verification.Enabled {
		return nil, report
	}

	workers := p.config.Verification.Workers
	if workers <= 0 {
		workers = 4
	}

	outcomes := make([]outcome, len(batch))
	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, c := range batch {
		wg.Add(1)
		go func(slot int, cit model.RawCitation) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				outcomes[slot] = outcome{rejections: []model.RejectionRecord{{
					Index:    slot,
					Strategy: "pipeline",
					Kind:     model.RejectTransport,
					Reason:   "context cancelled",
				}}}
				return
			}

			outcomes[slot] = p.verifyOne(ctx, slot, cit)
		}(i, c)
	}

	wg.Wait()

	// Collect in batch order so the released set preserves input order
	var primaries, reviews []model.VerifiedCitation
	for _, o := range outcomes {
		if o.finding != nil {
			report.FormatFindings = append(report.FormatFindings, *o.finding)
		}
		report.Rejections = append(report.Rejections, o.rejections...)
		if o.verified == nil {
			continue
		}
		switch o.verified.Tier {
		case model.TierVerifiedPrimary:
			primaries = append(primaries, *o.verified)
		case model.TierAuthoritativeReview:
			reviews = append(reviews, *o.verified)
		}
	}

	report.VerifiedPrimary = len(primaries)
	report.AuthoritativeReview = len(reviews)

	// The released set carries one credibility level. Reviews only go out
	// when no citation reached the primary tier.
	released := primaries
	if len(primaries) == 0 {
		released = reviews
	}
	report.Returned = len(released)

	if p.auditor != nil {
		report.Audits = p.auditor.Audit(ctx, batch)
	}

	allVerified := append(append([]model.VerifiedCitation{}, primaries...), reviews...)
	report.Score = p.scorer.Calculate(batch, allVerified, report.Rejections, report.Audits)

	return released, report
}

// verifyOne runs the strategy ladder for a single citation. The eligibility
// gate comes first and costs no network traffic; the PMID strategy outranks
// the DOI strategy; the review classification runs only when no registry
// strategy accepted.
func (p *Pipeline) verifyOne(ctx context.Context, index int, c model.RawCitation) outcome {
	var out outcome

	if !validate.HasMinimumRequirements(c) {
		out.rejections = append(out.rejections, model.RejectionRecord{
			Index:    index,
			Strategy: "eligibility",
			Kind:     model.RejectEligibility,
			Reason:   "no strong identifier and no source name",
		})
		return out
	}

	// Structural defects are recorded but never gate: the registries are
	// the arbiters of whether a claimed citation is real
	if err := validate.ValidateFormat(c); err != nil {
		out.finding = &model.FormatFinding{Index: index, Reason: err.Error()}
	}

	if c.PMID != "" {
		verdict := p.verifier.Verify(ctx, p.pubmed, c, c.PMID)
		if verdict.Verified {
			out.verified = materialize(c, verdict)
			return out
		}
		out.rejections = append(out.rejections, rejectionRecord(index, "pmid", c.PMID, verdict))
	}

	if c.DOI != "" {
		verdict := p.verifier.Verify(ctx, p.crossref, c, c.DOI)
		if verdict.Verified {
			out.verified = materialize(c, verdict)
			return out
		}
		out.rejections = append(out.rejections, rejectionRecord(index, "doi", c.DOI, verdict))
	}

	verdict := p.review.Classify(c)
	if verdict.Verified {
		out.verified = materialize(c, verdict)
		return out
	}
	out.rejections = append(out.rejections, rejectionRecord(index, "review", "", verdict))

	return out
}

// materialize builds the released citation for an accepting verdict. At the
// primary tier the registry's journal and year replace the claimed values;
// the claimed title survives either way.
func materialize(c model.RawCitation, v model.Verdict) *model.VerifiedCitation {
	out := &model.VerifiedCitation{
		RawCitation: c,
		Status:      model.StatusVerified,
		Tier:        v.Tier,
		Registry:    v.Metadata,
	}

	if v.Tier == model.TierVerifiedPrimary && v.Metadata != nil {
		out.Journal = v.Metadata.Journal
		out.Year = v.Metadata.Year
	}

	return out
}

func rejectionRecord(index int, strategy, identifier string, v model.Verdict) model.RejectionRecord {
	rec := model.RejectionRecord{
		Index:      index,
		Identifier: identifier,
		Strategy:   strategy,
	}
	if v.Rejection != nil {
		rec.Kind = v.Rejection.Kind
		rec.Reason = v.Rejection.Reason
	}
	return rec
}

// VerifyFile loads an evidence payload from a file and verifies it.
// A path of "-" reads the payload from stdin.
func (p *Pipeline) VerifyFile(ctx context.Context, path string) ([]model.VerifiedCitation, *model.Report, error) {
	var data []byte
	var err error

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read payload: %w", err)
	}

	return p.VerifyPayload(ctx, string(data), path)
}

// VerifyPayload parses raw payload text and verifies the batch it carries
func (p *Pipeline) VerifyPayload(ctx context.Context, text, source string) ([]model.VerifiedCitation, *model.Report, error) {
	batch, err := extract.ParsePayload(text)
	if err != nil {
		return nil, nil, err
	}

	released, report := p.VerifyWithReport(ctx, batch)
	report.Source = source
	return released, report, nil
}
