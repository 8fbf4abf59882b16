package concept

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
)

// ErrPHIViolation is returned when a query string fails the PHI safety
// check. Callers must not send the query off-premises.
var ErrPHIViolation = errors.New("query contains PHI")

var (
	decimalPattern  = regexp.MustCompile(`\d+\.\d+`)
	fractionPattern = regexp.MustCompile(`\d{2,3}/\d{2,3}`)
	datePattern     = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	idPattern       = regexp.MustCompile(`(?i)PT\d+|MRN\d+|patient.?id`)
)

// medicalCaps are capitalized abbreviations that are clinical vocabulary,
// not names or identifiers.
var medicalCaps = map[string]struct{}{
	"A1C": {}, "HBA1C": {}, "BP": {}, "LDL": {}, "HDL": {}, "ACE": {},
	"ARB": {}, "BMI": {}, "GFR": {}, "EGFR": {}, "CKD": {}, "HTN": {},
	"DM": {}, "CAD": {}, "CHF": {}, "SGLT2": {}, "GLP1": {},
}

// ValidatePHISafety scans a query string for PHI indicators and returns
// every violation found. It is a defense-in-depth check: the concept
// builder should never produce a violating query, but this runs anyway
// before anything leaves the trust boundary.
func ValidatePHISafety(queryText string) (bool, []string) {
	var violations []string

	if decimalPattern.MatchString(queryText) {
		violations = append(violations, "Contains decimal number (possible A1C/lab value)")
	}
	if fractionPattern.MatchString(queryText) {
		violations = append(violations, "Contains fraction pattern (possible BP)")
	}
	if datePattern.MatchString(queryText) {
		violations = append(violations, "Contains date pattern")
	}
	if idPattern.MatchString(queryText) {
		violations = append(violations, "Contains patient identifier pattern")
	}

	for _, word := range strings.Fields(queryText) {
		if len(word) <= 2 || containsDigit(word) {
			continue
		}
		if !isAllUpper(word) {
			continue
		}
		if _, ok := medicalCaps[word]; !ok {
			violations = append(violations, "Suspicious capitalized word: "+word)
		}
	}

	return len(violations) == 0, violations
}

// CheckPHISafety wraps ValidatePHISafety in an error. A non-nil return
// means the query must not leave the local boundary.
func CheckPHISafety(queryText string) error {
	if safe, violations := ValidatePHISafety(queryText); !safe {
		return goerr.Wrap(ErrPHIViolation, "PHI safety check failed", goerr.V("violations", violations))
	}
	return nil
}

// isAllUpper reports whether the word has at least one letter and every
// letter is uppercase.
func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
