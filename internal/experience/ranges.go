package experience

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/cv-job-matcher/internal/types"
)

var (
	// "Jan 2015 - Mar 2018", "September 2019 to Present"
	monthYearRangeRe = regexp.MustCompile(`\b([A-Za-z]{3,9})\s+(19\d{2}|20\d{2})\s*[-–to]{1,3}\s*([A-Za-z]{3,9}|Present|present|Current|current)\s*(19\d{2}|20\d{2})?\b`)

	// "2015 - 2018", "2019 – Present"
	yearRangeRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\s*[-–to]{1,3}\s*(Present|present|Current|current|19\d{2}|20\d{2})\b`)

	// "5 years of experience", "12+ yrs relevant experience"
	explicitYearsRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s*\+?\s*(years?|yrs?)\s+(of\s+)?(relevant\s+)?experience\b`)
)

const (
	familyMonthYear = "month-year"
	familyYearYear  = "year-year"
)

var months = map[string]int{
	"jan": 1, "january": 1, "feb": 2, "february": 2, "mar": 3, "march": 3,
	"apr": 4, "april": 4, "may": 5, "jun": 6, "june": 6, "jul": 7, "july": 7,
	"aug": 8, "august": 8, "sep": 9, "sept": 9, "september": 9, "oct": 10, "october": 10,
	"nov": 11, "november": 11, "dec": 12, "december": 12,
}

// monthNumber parses a month name; unrecognized words count as January
func monthNumber(s string) int {
	if m, ok := months[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m
	}
	return 1
}

func isPresent(s string) bool {
	s = strings.ToLower(s)
	return s == "present" || s == "current"
}

// before reports whether (y1, m1) is strictly earlier than (y2, m2)
func before(y1, m1, y2, m2 int) bool {
	return y1 < y2 || (y1 == y2 && m1 < m2)
}

// ExplicitYears returns every self-reported "N years experience" value up to
// maxYears, in document order
func ExplicitYears(text string, maxYears int) []int {
	var values []int
	for _, m := range explicitYearsRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n > maxYears {
			continue
		}
		values = append(values, n)
	}
	return values
}

// ExtractRanges finds employment date ranges of both forms. Ranges that end
// before they start, or that name an end month without a year, are returned
// in the trace with a reason and left out of the result.
func ExtractRanges(text string, now time.Time) ([]types.DateRange, []types.RangeTrace) {
	var (
		ranges []types.DateRange
		trace  []types.RangeTrace
	)

	for _, m := range monthYearRangeRe.FindAllStringSubmatch(text, -1) {
		m1, y1Raw, m2Raw, y2Raw := m[1], m[2], m[3], m[4]
		y1, _ := strconv.Atoi(y1Raw)
		r := types.DateRange{StartYear: y1, StartMonth: monthNumber(m1)}
		entry := types.RangeTrace{Family: familyMonthYear, From: m1 + " " + y1Raw}

		switch {
		case isPresent(m2Raw):
			r.EndYear, r.EndMonth = now.Year(), int(now.Month())
		case y2Raw == "":
			entry.To = m2Raw
			entry.Discarded = "missing end year"
			trace = append(trace, entry)
			continue
		default:
			r.EndYear, _ = strconv.Atoi(y2Raw)
			r.EndMonth = monthNumber(m2Raw)
		}
		entry.To = fmt.Sprintf("%s %d", m2Raw, r.EndYear)
		ranges, trace = accept(ranges, trace, r, entry)
	}

	for _, m := range yearRangeRe.FindAllStringSubmatch(text, -1) {
		y1, _ := strconv.Atoi(m[1])
		r := types.DateRange{StartYear: y1, StartMonth: 1}
		if isPresent(m[2]) {
			r.EndYear, r.EndMonth = now.Year(), int(now.Month())
		} else {
			r.EndYear, _ = strconv.Atoi(m[2])
			r.EndMonth = 12
		}
		entry := types.RangeTrace{Family: familyYearYear, From: m[1], To: m[2]}
		ranges, trace = accept(ranges, trace, r, entry)
	}

	return ranges, trace
}

func accept(ranges []types.DateRange, trace []types.RangeTrace, r types.DateRange, entry types.RangeTrace) ([]types.DateRange, []types.RangeTrace) {
	if before(r.EndYear, r.EndMonth, r.StartYear, r.StartMonth) {
		entry.Discarded = "end before start"
		return ranges, append(trace, entry)
	}
	entry.Years = round2(r.Years())
	return append(ranges, r), append(trace, entry)
}

// Merge sorts ranges by start and folds overlapping ones together, so
// concurrent jobs are counted once. A range starting in the month another
// ends is treated as overlapping.
func Merge(ranges []types.DateRange) []types.DateRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]types.DateRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return before(sorted[i].StartYear, sorted[i].StartMonth, sorted[j].StartYear, sorted[j].StartMonth)
	})

	merged := []types.DateRange{sorted[0]}
	for _, r := range sorted[1:] {
		cur := &merged[len(merged)-1]
		if before(cur.EndYear, cur.EndMonth, r.StartYear, r.StartMonth) {
			merged = append(merged, r)
			continue
		}
		if before(cur.EndYear, cur.EndMonth, r.EndYear, r.EndMonth) {
			cur.EndYear, cur.EndMonth = r.EndYear, r.EndMonth
		}
	}
	return merged
}

// TotalYears sums the lengths of the given ranges
func TotalYears(ranges []types.DateRange) float64 {
	total := 0.0
	for _, r := range ranges {
		total += r.Years()
	}
	return total
}
