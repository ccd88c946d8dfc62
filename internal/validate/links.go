package validate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/longevityfoodlab/citegate/internal/extract"
	"github.com/longevityfoodlab/citegate/internal/model"
	"github.com/longevityfoodlab/citegate/internal/util"
	"github.com/longevityfoodlab/citegate/internal/worker"
)

const auditMaxRetries = 3

// auditSleepFunc is the sleep function used between retries (injectable for tests)
var auditSleepFunc = time.Sleep

// LinkAuditor checks the convenience URLs citations carry: accessibility via
// HEAD, and optionally the citation_* meta tags on the landing page against
// the claimed identifiers. Audit results feed the report only; verification
// verdicts never depend on them.
type LinkAuditor struct {
	httpClient *http.Client
	maxWorkers int
	maxBody    int64
	userAgent  string
	checkMeta  bool
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
}

// NewLinkAuditor creates an auditor from the configuration
func NewLinkAuditor(cfg *model.Config) *LinkAuditor {
	maxWorkers := cfg.Audit.Workers
	if maxWorkers <= 0 {
		maxWorkers = 8
	}

	proxyFunc := util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	var robots *util.RobotsChecker
	if cfg.Audit.RespectRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.Audit.Timeout)
	}

	return &LinkAuditor{
		httpClient: &http.Client{
			Timeout: cfg.Audit.Timeout,
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
		maxWorkers: maxWorkers,
		maxBody:    cfg.Audit.MaxBodyBytes,
		userAgent:  cfg.HTTP.UserAgent,
		checkMeta:  cfg.Audit.CheckMeta,
		robots:     robots,
		limiter:    worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
	}
}

// Audit checks every citation that carries a URL, concurrently. Citations
// without a URL produce no entry.
func (a *LinkAuditor) Audit(ctx context.Context, citations []model.RawCitation) []model.LinkAudit {
	var targets []model.RawCitation
	for _, c := range citations {
		if c.URL != "" {
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		return []model.LinkAudit{}
	}

	results := make([]model.LinkAudit, len(targets))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, a.maxWorkers)

	for i, c := range targets {
		wg.Add(1)
		go func(idx int, c model.RawCitation) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.LinkAudit{
					URL:   c.URL,
					Error: "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = a.auditWithRetry(ctx, c)
		}(i, c)
	}

	wg.Wait()

	return results
}

// auditSingle checks one cited URL
func (a *LinkAuditor) auditSingle(ctx context.Context, c model.RawCitation) model.LinkAudit {
	result := model.LinkAudit{
		URL:          c.URL,
		IsAccessible: false,
	}

	if a.robots != nil {
		allowed, crawlDelay, err := a.robots.CanFetch(ctx, c.URL)
		if err == nil && !allowed {
			result.Error = "disallowed by robots.txt"
			return result
		}
		if err := a.limiter.WaitWithDelay(ctx, c.URL, crawlDelay); err != nil {
			result.Error = "context cancelled"
			return result
		}
	} else {
		if err := a.limiter.Wait(ctx, c.URL); err != nil {
			result.Error = "context cancelled"
			return result
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.URL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.IsAccessible = true
	}

	if resp.Request.URL.String() != c.URL {
		result.RedirectURL = resp.Request.URL.String()
	}

	if a.checkMeta && result.IsAccessible && c.HasStrongIdentifier() {
		a.compareMeta(ctx, c, &result)
	}

	return result
}

// compareMeta fetches the landing page and compares its citation meta tags
// with the claimed identifiers. Failures here leave the audit as is; a page
// without tags proves nothing either way.
func (a *LinkAuditor) compareMeta(ctx context.Context, c model.RawCitation, result *model.LinkAudit) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBody))
	if err != nil {
		return
	}

	meta, err := extract.ExtractScholarMeta(string(body))
	if err != nil || meta.Empty() {
		return
	}

	result.MetaDOI = meta.DOI
	result.MetaPMID = meta.PMID

	if c.DOI != "" && meta.DOI != "" && !strings.EqualFold(c.DOI, meta.DOI) {
		result.IdentifierMismatch = true
	}
	if c.PMID != "" && meta.PMID != "" && c.PMID != meta.PMID {
		result.IdentifierMismatch = true
	}
}

// auditWithRetry retries transient failures with exponential backoff
func (a *LinkAuditor) auditWithRetry(ctx context.Context, c model.RawCitation) model.LinkAudit {
	var result model.LinkAudit
	for attempt := 0; attempt < auditMaxRetries; attempt++ {
		result = a.auditSingle(ctx, c)
		if !isRetryableAudit(result) {
			return result
		}
		if attempt < auditMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			auditSleepFunc(backoff)
		}
	}
	return result
}

// isRetryableAudit returns true for results that indicate transient failures
func isRetryableAudit(result model.LinkAudit) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == 429 {
		return true
	}
	if result.Error != "" && isRetryableNetworkError(result.Error) {
		return true
	}
	return false
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
