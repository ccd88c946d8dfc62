package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// ScholarMeta holds the HighWire-style citation tags publishers embed in
// article landing pages for indexers.
type ScholarMeta struct {
	DOI     string
	PMID    string
	Title   string
	Journal string
}

// Empty reports whether no citation tags were found at all
func (m *ScholarMeta) Empty() bool {
	return m.DOI == "" && m.PMID == "" && m.Title == "" && m.Journal == ""
}

// ExtractScholarMeta reads citation_doi, citation_pmid, citation_title and
// citation_journal_title meta tags from an HTML page. The first occurrence of
// each tag wins.
func ExtractScholarMeta(htmlContent string) (*ScholarMeta, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	meta := &ScholarMeta{}
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			name := ""
			content := ""

			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					name = strings.ToLower(strings.TrimSpace(attr.Val))
				case "content":
					content = strings.TrimSpace(attr.Val)
				}
			}

			if content != "" {
				switch name {
				case "citation_doi":
					if meta.DOI == "" {
						meta.DOI = normalizeDOI(content)
					}
				case "citation_pmid":
					if meta.PMID == "" {
						meta.PMID = content
					}
				case "citation_title":
					if meta.Title == "" {
						meta.Title = content
					}
				case "citation_journal_title":
					if meta.Journal == "" {
						meta.Journal = content
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return meta, nil
}

// normalizeDOI strips the optional "doi:" prefix some publishers emit
func normalizeDOI(s string) string {
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "doi:") {
		return strings.TrimSpace(s[4:])
	}
	return s
}
