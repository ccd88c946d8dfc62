package registry

import (
	"errors"
	"strings"
	"testing"
)

func TestCrossrefScheme_Extract(t *testing.T) {
	scheme := NewCrossrefScheme("", "")

	tests := []struct {
		desc    string
		body    string
		want    Record
		wantErr string
	}{
		{
			desc: "complete work",
			body: `{
				"status": "ok",
				"message": {
					"title": ["Mortality in randomized trials of antioxidant supplements"],
					"container-title": ["JAMA"],
					"author": [{"given": "Goran", "family": "Bjelakovic"}, {"given": "Dimitrinka", "family": "Nikolova"}],
					"published-print": {"date-parts": [[2007, 2, 28]]}
				}
			}`,
			want: Record{
				Journal:     "JAMA",
				Year:        2007,
				FirstAuthor: "Bjelakovic",
				Title:       "Mortality in randomized trials of antioxidant supplements",
			},
		},
		{
			desc: "online date when print missing",
			body: `{"message": {"container-title": ["Nutrients"], "published-online": {"date-parts": [[2021, 6]]}}}`,
			want: Record{Journal: "Nutrients", Year: 2021},
		},
		{
			desc: "print date wins over online",
			body: `{"message": {"container-title": ["Nutrients"], "published-print": {"date-parts": [[2020]]}, "published-online": {"date-parts": [[2019, 12]]}}}`,
			want: Record{Journal: "Nutrients", Year: 2020},
		},
		{
			desc: "missing fields leave zero values",
			body: `{"message": {}}`,
			want: Record{},
		},
		{
			desc: "empty date parts",
			body: `{"message": {"container-title": ["BMJ"], "published-print": {"date-parts": []}}}`,
			want: Record{Journal: "BMJ"},
		},
		{
			desc:    "malformed response",
			body:    `<html>rate limited</html>`,
			wantErr: "decode works response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			rec, err := scheme.Extract([]byte(tt.body))

			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %q", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if *rec != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, *rec)
			}
		})
	}
}

func TestCrossrefScheme_LookupURL(t *testing.T) {
	scheme := NewCrossrefScheme("https://api.example.org/", "")

	got, err := scheme.LookupURL("10.1001/jama.297.8.842")
	if err != nil {
		t.Fatalf("LookupURL failed: %v", err)
	}

	// The DOI slash must be percent-encoded so it stays one path segment
	want := "https://api.example.org/works/10.1001%2Fjama.297.8.842"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCrossrefScheme_PublicURL(t *testing.T) {
	scheme := NewCrossrefScheme("", "https://resolver.example.org")

	// The resolver treats the whole path as the identifier, so no escaping
	want := "https://resolver.example.org/10.1001/jama.297.8.842"
	if got := scheme.PublicURL("10.1001/jama.297.8.842"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCrossrefScheme_Defaults(t *testing.T) {
	scheme := NewCrossrefScheme("", "")

	if scheme.Name() != "doi" {
		t.Errorf("expected scheme name doi, got %q", scheme.Name())
	}

	lookup, err := scheme.LookupURL("10.1234/abc")
	if err != nil {
		t.Fatalf("LookupURL failed: %v", err)
	}
	if !strings.HasPrefix(lookup, "https://api.crossref.org/works/") {
		t.Errorf("expected public Crossref API, got %q", lookup)
	}

	if !strings.HasPrefix(scheme.PublicURL("10.1234/abc"), "https://doi.org/") {
		t.Errorf("expected doi.org resolver, got %q", scheme.PublicURL("10.1234/abc"))
	}

	if !scheme.ValidateID("10.1234/abc") {
		t.Error("expected valid DOI to pass")
	}
	if scheme.ValidateID("not-a-doi") {
		t.Error("expected invalid DOI to fail")
	}
}

func TestCrossrefDate_Year(t *testing.T) {
	var nilDate *crossrefDate
	if y := nilDate.year(); y != 0 {
		t.Errorf("expected 0 for nil date, got %d", y)
	}

	d := &crossrefDate{DateParts: [][]int{{2019, 3, 12}}}
	if y := d.year(); y != 2019 {
		t.Errorf("expected 2019, got %d", y)
	}

	empty := &crossrefDate{DateParts: [][]int{{}}}
	if y := empty.year(); y != 0 {
		t.Errorf("expected 0 for empty parts, got %d", y)
	}
}

// Extract must not be confused with a not-found sentinel: a syntactically
// valid but empty works response is metadata-incomplete, not unknown.
func TestCrossrefScheme_ExtractNeverNotFound(t *testing.T) {
	scheme := NewCrossrefScheme("", "")

	_, err := scheme.Extract([]byte(`{"status": "ok", "message": {}}`))
	if errors.Is(err, ErrNotFound) {
		t.Error("empty work must not map to ErrNotFound")
	}
}
