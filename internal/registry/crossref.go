package registry

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/longevityfoodlab/citegate/internal/validate"
)

// CrossrefScheme verifies DOIs against the Crossref works API
type CrossrefScheme struct {
	apiBase     string
	resolveBase string
}

// NewCrossrefScheme creates the DOI scheme. Empty bases fall back to the
// public Crossref API and the doi.org resolver.
func NewCrossrefScheme(apiBase, resolveBase string) *CrossrefScheme {
	if apiBase == "" {
		apiBase = "https://api.crossref.org"
	}
	if resolveBase == "" {
		resolveBase = "https://doi.org"
	}
	return &CrossrefScheme{
		apiBase:     strings.TrimSuffix(apiBase, "/"),
		resolveBase: strings.TrimSuffix(resolveBase, "/"),
	}
}

// Name identifies the scheme
func (s *CrossrefScheme) Name() string {
	return "doi"
}

// ValidateID checks DOI structure
func (s *CrossrefScheme) ValidateID(id string) bool {
	return validate.IsValidDOI(id)
}

// LookupURL builds the works API URL with the DOI percent-encoded
func (s *CrossrefScheme) LookupURL(id string) (string, error) {
	lookup := fmt.Sprintf("%s/works/%s", s.apiBase, url.PathEscape(id))
	if _, err := url.ParseRequestURI(lookup); err != nil {
		return "", fmt.Errorf("build lookup URL: %w", err)
	}
	return lookup, nil
}

// PublicURL builds the resolver landing URL. The DOI is left unescaped; the
// resolver treats the whole path as the identifier.
func (s *CrossrefScheme) PublicURL(id string) string {
	return s.resolveBase + "/" + id
}

type crossrefResponse struct {
	Status  string       `json:"status"`
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title           []string         `json:"title"`
	ContainerTitle  []string         `json:"container-title"`
	Author          []crossrefAuthor `json:"author"`
	PublishedPrint  *crossrefDate    `json:"published-print"`
	PublishedOnline *crossrefDate    `json:"published-online"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// year returns the leading date part, the publication year
func (d *crossrefDate) year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

// Extract reads journal, year, first author and title from a works response.
// The print date wins over the online date when both are present.
func (s *CrossrefScheme) Extract(body []byte) (*Record, error) {
	var resp crossrefResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode works response: %w", err)
	}

	msg := resp.Message
	rec := &Record{}

	if len(msg.ContainerTitle) > 0 {
		rec.Journal = msg.ContainerTitle[0]
	}
	if len(msg.Title) > 0 {
		rec.Title = msg.Title[0]
	}
	if len(msg.Author) > 0 {
		rec.FirstAuthor = msg.Author[0].Family
	}

	if y := msg.PublishedPrint.year(); y > 0 {
		rec.Year = y
	} else {
		rec.Year = msg.PublishedOnline.year()
	}

	return rec, nil
}
