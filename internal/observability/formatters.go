// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/cv-job-matcher/internal/jobsearch"
	"github.com/jonathan/cv-job-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// PrintProfile outputs a human-readable summary of an extracted profile.
func (p *Printer) PrintProfile(profile *types.CandidateProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Country:  %s\n", orDash(profile.Location.Country)))
	sb.WriteString(fmt.Sprintf("City:     %s\n", orDash(profile.Location.City)))
	sb.WriteString(fmt.Sprintf("Mode:     %s\n", profile.Location.Mode))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Title:    %s\n", orDash(profile.Role.Raw)))
	sb.WriteString(fmt.Sprintf("Role:     %s\n", orDash(profile.Role.Canonical)))
	if n := len(profile.Role.SynonymsUsed); n > 1 {
		sb.WriteString(fmt.Sprintf("Synonyms: %d search terms\n", n))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Years:    %.2f (%s)\n", profile.Experience.Years, profile.Experience.Method))
	sb.WriteString(fmt.Sprintf("Level:    %s", profile.Experience.SeniorityBand))

	p.printBox("CANDIDATE PROFILE", sb.String())

	if profile.Experience.Debug != nil {
		p.PrintExperienceTrace(profile.Experience.Debug)
	}
}

// PrintExperienceTrace outputs the explicit statements and date ranges behind an estimate.
func (p *Printer) PrintExperienceTrace(trace *types.ExperienceTrace) {
	if trace == nil {
		return
	}

	var sb strings.Builder
	if len(trace.Explicit) > 0 {
		values := make([]string, len(trace.Explicit))
		for i, v := range trace.Explicit {
			values[i] = fmt.Sprintf("%d", v)
		}
		sb.WriteString(fmt.Sprintf("Stated years: %s\n\n", strings.Join(values, ", ")))
	}

	if len(trace.Ranges) > 0 {
		sb.WriteString("Ranges:\n")
		for _, r := range trace.Ranges {
			if r.Discarded != "" {
				sb.WriteString(fmt.Sprintf("  ✗ %s - %s (%s)\n", r.From, r.To, r.Discarded))
				continue
			}
			sb.WriteString(fmt.Sprintf("  • %s - %s  %.2fy\n", r.From, r.To, r.Years))
		}
		sb.WriteString("\n")
	}

	if len(trace.Merged) > 0 {
		sb.WriteString("Merged:\n")
		for _, r := range trace.Merged {
			sb.WriteString(fmt.Sprintf("  %04d-%02d to %04d-%02d\n", r.StartYear, r.StartMonth, r.EndYear, r.EndMonth))
		}
	}

	content := strings.TrimSuffix(sb.String(), "\n")
	if content == "" {
		content = "No experience signals found"
	}
	p.printBox("EXPERIENCE TRACE", content)
}

// PrintMatches outputs the filter funnel and the leading job hits.
func (p *Printer) PrintMatches(res *jobsearch.MatchResult) {
	if res == nil {
		return
	}

	var sb strings.Builder
	query := res.SearchParams.Query
	if res.SearchParams.Country != "" {
		query += " in " + res.SearchParams.Country
	}
	sb.WriteString(fmt.Sprintf("Query:    %s\n", orDash(strings.TrimSpace(query))))
	if !res.Jobs.OK {
		sb.WriteString("Status:   search failed\n")
	}
	sb.WriteString(fmt.Sprintf("Found %d → role %d → experience %d\n",
		res.Jobs.TotalBeforeFilter, res.Jobs.AfterRoleFilter, res.Jobs.AfterExperienceFilter))

	if len(res.Jobs.Hits) > 0 {
		sb.WriteString("\n")
		count := min(len(res.Jobs.Hits), maxItemsToShow)
		for i := 0; i < count; i++ {
			hit := res.Jobs.Hits[i]
			sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, orDash(hit.Title())))
			if company := hit.String("company_name"); company != "" {
				sb.WriteString(fmt.Sprintf("    %s\n", company))
			}
		}
		if len(res.Jobs.Hits) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("\n... and %d more jobs\n", len(res.Jobs.Hits)-maxItemsToShow))
		}
	}

	p.printBox("JOB MATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBatchSummary outputs counts of location modes and estimate methods over a batch.
func (p *Printer) PrintBatchSummary(profiles []*types.CandidateProfile) {
	if len(profiles) == 0 {
		return
	}

	modes := map[types.ResolutionMode]int{}
	methods := map[types.EstimateMethod]int{}
	withRole := 0
	for _, prof := range profiles {
		if prof == nil {
			continue
		}
		modes[prof.Location.Mode]++
		methods[prof.Experience.Method]++
		if prof.Role.Canonical != "" {
			withRole++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Profiles:   %d\n", len(profiles)))
	sb.WriteString(fmt.Sprintf("With role:  %d\n\n", withRole))
	sb.WriteString("Location:\n")
	for _, m := range []types.ResolutionMode{types.ModeCountry, types.ModeCityToCountry, types.ModeCityOnly, types.ModeFallback} {
		if modes[m] > 0 {
			sb.WriteString(fmt.Sprintf("  %-16s %d\n", m, modes[m]))
		}
	}
	sb.WriteString("Experience:\n")
	for _, m := range []types.EstimateMethod{types.MethodCombined, types.MethodRanges, types.MethodExplicit, types.MethodNone} {
		if methods[m] > 0 {
			sb.WriteString(fmt.Sprintf("  %-16s %d\n", m, methods[m]))
		}
	}

	p.printBox("BATCH SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
