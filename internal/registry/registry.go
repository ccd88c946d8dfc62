package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/longevityfoodlab/citegate/internal/cache"
	"github.com/longevityfoodlab/citegate/internal/model"
	"github.com/longevityfoodlab/citegate/internal/util"
	"github.com/longevityfoodlab/citegate/internal/worker"
)

// maxResponseBytes caps registry response bodies
const maxResponseBytes = 1 << 20

// ErrNotFound is returned by Scheme.Extract when the registry answered but
// does not know the identifier. PubMed reports unknown ids inside an HTTP 200
// payload, so a 404 status alone does not cover this.
var ErrNotFound = errors.New("identifier not found")

// Record holds the bibliographic facts extracted from one registry response
type Record struct {
	Journal     string `json:"journal"`
	Year        int    `json:"year"`
	FirstAuthor string `json:"first_author,omitempty"`
	Title       string `json:"title,omitempty"`
}

// Scheme describes one strong-identifier registry: how to validate the
// identifier, where to look it up, and how to read the response.
type Scheme interface {
	// Name identifies the scheme ("doi", "pmid")
	Name() string
	// ValidateID reports whether id is structurally valid for this scheme
	ValidateID(id string) bool
	// LookupURL builds the registry API URL for id
	LookupURL(id string) (string, error)
	// PublicURL builds the public landing URL whose resolution is checked
	PublicURL(id string) string
	// Extract reads a Record out of a registry response body
	Extract(body []byte) (*Record, error)
}

// Verifier runs the lookup-and-cross-check pass shared by every scheme.
// Each strategy attempt is a single shot: no retries, any failure is final
// for that strategy.
type Verifier struct {
	lookupClient  *http.Client
	resolveClient *http.Client
	limiter       *worker.Limiter
	store         cache.Cache
	userAgent     string
}

// cachedLookup is what the verifier persists per identifier: the extracted
// record plus whether its landing URL already resolved. Cross-checks against
// claimed fields always re-run.
type cachedLookup struct {
	Record   Record `json:"record"`
	Resolved bool   `json:"resolved"`
}

// NewVerifier creates a registry verifier from the configuration. The store
// may be nil, which disables lookup caching.
func NewVerifier(cfg *model.Config, store cache.Cache) *Verifier {
	proxyFunc := util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	return &Verifier{
		lookupClient: &http.Client{
			Timeout: cfg.Registry.LookupTimeout,
			Transport: &http.Transport{
				Proxy: proxyFunc,
			},
		},
		resolveClient: &http.Client{
			Timeout: cfg.Registry.ResolveTimeout,
			Transport: &http.Transport{
				Proxy: proxyFunc,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:   worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		store:     store,
		userAgent: cfg.HTTP.UserAgent,
	}
}

// Verify checks one citation against one registry. The sequence is fixed:
// identifier format, registry lookup, metadata completeness, cross-checks
// against the claimed fields, then landing URL resolution. The returned
// verdict either carries registry metadata at the primary tier or the
// rejection that ended the attempt.
func (v *Verifier) Verify(ctx context.Context, scheme Scheme, c model.RawCitation, id string) model.Verdict {
	if id == "" || !scheme.ValidateID(id) {
		return model.NewRejectedf(model.RejectFormat, "invalid %s identifier", scheme.Name())
	}

	rec, resolved, hit := v.cachedRecord(scheme, id)
	if !hit {
		var verdict model.Verdict
		rec, verdict = v.lookup(ctx, scheme, id)
		if rec == nil {
			return verdict
		}
		v.storeRecord(scheme, id, rec, false)
	}

	if rec.Journal == "" {
		return model.NewRejected(model.RejectMetadataIncomplete, "registry metadata unavailable: journal missing")
	}
	if rec.Year == 0 {
		return model.NewRejected(model.RejectMetadataIncomplete, "registry metadata unavailable: year missing")
	}

	// Publication lag tolerance: the registry year may differ from the
	// claimed year by at most one in either direction.
	if rec.Year < c.Year-1 || rec.Year > c.Year+1 {
		return model.NewRejectedf(model.RejectConsistency,
			"year mismatch: expected %d±1, found %d", c.Year, rec.Year)
	}

	if rec.FirstAuthor != "" && !authorsMatch(c.Authors, rec.FirstAuthor) {
		return model.NewRejected(model.RejectConsistency, "author mismatch")
	}

	if !resolved {
		if err := v.resolve(ctx, scheme.PublicURL(id)); err != nil {
			return model.NewRejected(model.RejectTransport, "identifier URL does not resolve")
		}
		v.storeRecord(scheme, id, rec, true)
	}

	return model.NewVerified(model.TierVerifiedPrimary, &model.RegistryMetadata{
		Journal: rec.Journal,
		Year:    rec.Year,
		Title:   rec.Title,
	})
}

// lookup queries the registry API and extracts the record. On failure the
// record is nil and the verdict explains why.
func (v *Verifier) lookup(ctx context.Context, scheme Scheme, id string) (*Record, model.Verdict) {
	lookupURL, err := scheme.LookupURL(id)
	if err != nil {
		return nil, model.NewRejected(model.RejectTransport, "invalid API URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, model.NewRejected(model.RejectTransport, "invalid API URL")
	}
	req.Header.Set("User-Agent", v.userAgent)
	req.Header.Set("Accept", "application/json")

	if err := v.limiter.Wait(ctx, lookupURL); err != nil {
		return nil, model.NewRejectedf(model.RejectTransport, "API error: %v", err)
	}

	resp, err := v.lookupClient.Do(req)
	if err != nil {
		return nil, model.NewRejectedf(model.RejectTransport, "API error: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, model.NewRejectedf(model.RejectNotFound, "%s not found in registry", id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, model.NewRejectedf(model.RejectTransport, "registry returned error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, model.NewRejectedf(model.RejectTransport, "API error: %v", err)
	}

	rec, err := scheme.Extract(body)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, model.NewRejectedf(model.RejectNotFound, "%s not found in registry", id)
		}
		return nil, model.NewRejected(model.RejectTransport, "invalid registry response")
	}

	return rec, model.Verdict{}
}

// resolve confirms the public landing URL answers a HEAD request with 200.
// Up to three redirects are followed; anything but a final 200 fails.
func (v *Verifier) resolve(ctx context.Context, publicURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, publicURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", v.userAgent)

	if err := v.limiter.Wait(ctx, publicURL); err != nil {
		return err
	}

	resp, err := v.resolveClient.Do(req)
	if err != nil {
		return fmt.Errorf("head %s: %w", publicURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	return nil
}

// cachedRecord loads a previously extracted record for scheme/id
func (v *Verifier) cachedRecord(scheme Scheme, id string) (*Record, bool, bool) {
	if v.store == nil {
		return nil, false, false
	}

	data, found := v.store.Get(cache.Key("registry", scheme.Name(), id))
	if !found {
		return nil, false, false
	}

	var entry cachedLookup
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, false
	}

	return &entry.Record, entry.Resolved, true
}

// storeRecord persists an extracted record and its resolution state
func (v *Verifier) storeRecord(scheme Scheme, id string, rec *Record, resolved bool) {
	if v.store == nil || rec == nil {
		return
	}

	data, err := json.Marshal(cachedLookup{Record: *rec, Resolved: resolved})
	if err != nil {
		return
	}

	_ = v.store.Set(cache.Key("registry", scheme.Name(), id), data, 0)
}

// authorsMatch compares the claimed first author with the registry's, using
// case-insensitive containment in either direction. "Smith" matches
// "Smith JB" and "smith" matches "Blackburn-Smith".
func authorsMatch(claimed, registry string) bool {
	a := strings.ToLower(strings.TrimSpace(claimed))
	b := strings.ToLower(strings.TrimSpace(registry))
	return strings.Contains(a, b) || strings.Contains(b, a)
}
