package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/longevityfoodlab/citegate/internal/model"
)

// minPublicationYear bounds plausible claimed years from below
const minPublicationYear = 1800

var (
	doiPattern  = regexp.MustCompile(`^10\.\d{4,}/.+$`)
	pmidPattern = regexp.MustCompile(`^\d{6,8}$`)
)

// IsValidDOI reports whether s is structurally a DOI: the "10." directory
// prefix, a registrant code of at least four digits, a slash, and a non-empty
// suffix.
func IsValidDOI(s string) bool {
	return doiPattern.MatchString(s)
}

// IsValidPMID reports whether s is a plausible PubMed identifier: purely
// numeric, six to eight digits, greater than zero.
func IsValidPMID(s string) bool {
	if !pmidPattern.MatchString(s) {
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n > 0
}

// IsValidYear reports whether a claimed publication year is plausible.
// Future years are rejected outright.
func IsValidYear(year int) bool {
	return year >= minPublicationYear && year <= time.Now().Year()
}

// HasRequiredFields reports whether the citation is structurally complete:
// ingredient, nutrient, outcome, authors and journal present, year plausible.
func HasRequiredFields(c model.RawCitation) bool {
	return c.Ingredient != "" && c.Nutrient != "" && c.Outcome != "" &&
		c.Authors != "" && c.Journal != "" && IsValidYear(c.Year)
}

// HasMinimumRequirements is the absolute eligibility gate: a citation needs a
// strong identifier or at least a named source before any network attempt.
func HasMinimumRequirements(c model.RawCitation) bool {
	return c.DOI != "" || c.PMID != "" || c.Journal != ""
}

// ValidateFormat checks a citation's structural validity and returns the first
// failure found. Missing fields are reported before a malformed DOI, and a
// malformed DOI before a malformed PMID, so error messages are deterministic.
func ValidateFormat(c model.RawCitation) error {
	required := []struct {
		name  string
		value string
	}{
		{"ingredient", c.Ingredient},
		{"nutrient", c.Nutrient},
		{"outcome", c.Outcome},
		{"authors", c.Authors},
		{"journal", c.Journal},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("missing required field: %s", f.name)
		}
	}
	if !IsValidYear(c.Year) {
		return fmt.Errorf("implausible year: %d", c.Year)
	}
	if c.DOI != "" && !IsValidDOI(c.DOI) {
		return fmt.Errorf("malformed DOI: %s", c.DOI)
	}
	if c.PMID != "" && !IsValidPMID(c.PMID) {
		return fmt.Errorf("malformed PMID: %s", c.PMID)
	}
	return nil
}
