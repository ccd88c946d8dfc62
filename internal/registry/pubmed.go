package registry

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/longevityfoodlab/citegate/internal/validate"
)

// PubMedScheme verifies PMIDs against the NCBI E-utilities summary API
type PubMedScheme struct {
	apiBase     string
	resolveBase string
}

// NewPubMedScheme creates the PMID scheme. Empty bases fall back to the
// public E-utilities endpoint and the pubmed.ncbi.nlm.nih.gov article pages.
func NewPubMedScheme(apiBase, resolveBase string) *PubMedScheme {
	if apiBase == "" {
		apiBase = "https://eutils.ncbi.nlm.nih.gov"
	}
	if resolveBase == "" {
		resolveBase = "https://pubmed.ncbi.nlm.nih.gov"
	}
	return &PubMedScheme{
		apiBase:     strings.TrimSuffix(apiBase, "/"),
		resolveBase: strings.TrimSuffix(resolveBase, "/"),
	}
}

// Name identifies the scheme
func (s *PubMedScheme) Name() string {
	return "pmid"
}

// ValidateID checks PMID structure
func (s *PubMedScheme) ValidateID(id string) bool {
	return validate.IsValidPMID(id)
}

// LookupURL builds the esummary API URL
func (s *PubMedScheme) LookupURL(id string) (string, error) {
	lookup := fmt.Sprintf("%s/entrez/eutils/esummary.fcgi?db=pubmed&id=%s&retmode=json",
		s.apiBase, url.QueryEscape(id))
	if _, err := url.ParseRequestURI(lookup); err != nil {
		return "", fmt.Errorf("build lookup URL: %w", err)
	}
	return lookup, nil
}

// PublicURL builds the article page URL
func (s *PubMedScheme) PublicURL(id string) string {
	return s.resolveBase + "/" + id + "/"
}

// pubmedResponse is the esummary envelope. Summaries live under result keyed
// by their own uid, so the result is decoded in two steps.
type pubmedResponse struct {
	Error  string                     `json:"error"`
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedSummary struct {
	UID      string         `json:"uid"`
	PubDate  string         `json:"pubdate"`
	EPubDate string         `json:"epubdate"`
	Source   string         `json:"source"`
	Title    string         `json:"title"`
	Authors  []pubmedAuthor `json:"authors"`
	Error    string         `json:"error"`
}

type pubmedAuthor struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}

// Extract reads journal, year, first author and title from an esummary
// response. NCBI reports unknown ids inside a 200 payload, either as an empty
// uid list or as a per-document error, so both map to ErrNotFound.
func (s *PubMedScheme) Extract(body []byte) (*Record, error) {
	var resp pubmedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode esummary response: %w", err)
	}

	if resp.Error != "" {
		return nil, ErrNotFound
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("esummary result missing")
	}

	var uids []string
	if raw, ok := resp.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return nil, fmt.Errorf("decode esummary uids: %w", err)
		}
	}
	if len(uids) == 0 {
		return nil, ErrNotFound
	}

	raw, ok := resp.Result[uids[0]]
	if !ok {
		return nil, ErrNotFound
	}

	var sum pubmedSummary
	if err := json.Unmarshal(raw, &sum); err != nil {
		return nil, fmt.Errorf("decode esummary document: %w", err)
	}
	if sum.Error != "" {
		return nil, ErrNotFound
	}

	rec := &Record{
		Journal: sum.Source,
		Title:   sum.Title,
	}
	if y := leadingYear(sum.PubDate); y > 0 {
		rec.Year = y
	} else {
		rec.Year = leadingYear(sum.EPubDate)
	}
	if len(sum.Authors) > 0 {
		rec.FirstAuthor = sum.Authors[0].Name
	}

	return rec, nil
}

// leadingYear parses the year prefix of an esummary date ("2020 Mar 15")
func leadingYear(date string) int {
	fields := strings.Fields(date)
	if len(fields) == 0 {
		return 0
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return year
}
