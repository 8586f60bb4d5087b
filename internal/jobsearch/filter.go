package jobsearch

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/cv-job-matcher/internal/fuzzy"
)

// Defaults for the client-side filters
const (
	DefaultTitleFilterCutoff = 78.0
	DefaultExperienceCushion = 1.0
)

// "5+ years of experience", "3-5 years relevant experience", "2 to 4 yrs experience"
var requiredYearsRe = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:\+|plus)?\s*(?:-|–|—|to)?\s*(\d{1,2})?\s*(?:years?|yrs?)\s+(?:of\s+)?(?:relevant\s+)?experience`)

// FilterByRole keeps hits whose title scores at least cutoff against some
// term by partial ratio. With no terms every hit is kept.
func FilterByRole(hits []Hit, terms []string, cutoff float64) []Hit {
	if len(terms) == 0 {
		return hits
	}
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}

	keep := []Hit{}
	for _, h := range hits {
		title := strings.ToLower(h.Title())
		best := 0.0
		for _, term := range lowered {
			best = max(best, fuzzy.PartialRatio(title, term))
		}
		if best >= cutoff {
			keep = append(keep, h)
		}
	}
	return keep
}

// RequiredYears returns the largest experience requirement stated in the
// description, requirements or title of a hit. For a range the upper end
// counts. ok is false when nothing is stated.
func RequiredYears(h Hit) (years float64, ok bool) {
	var parts []string
	for _, key := range []string{"description", "requirements", "title"} {
		if v := h.String(key); strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return 0, false
	}

	best := -1
	for _, m := range requiredYearsRe.FindAllStringSubmatch(strings.Join(parts, " \n"), -1) {
		n, _ := strconv.Atoi(m[1])
		if m[2] != "" {
			upper, _ := strconv.Atoi(m[2])
			n = max(n, upper)
		}
		best = max(best, n)
	}
	if best < 0 {
		return 0, false
	}
	return float64(best), true
}

// FilterByExperience keeps hits with no stated requirement or a requirement
// of at most years plus cushion
func FilterByExperience(hits []Hit, years, cushion float64) []Hit {
	if len(hits) == 0 {
		return hits
	}
	keep := []Hit{}
	for _, h := range hits {
		req, ok := RequiredYears(h)
		if !ok || req <= years+cushion {
			keep = append(keep, h)
		}
	}
	return keep
}
