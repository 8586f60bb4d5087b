// Package ingestion turns resume documents into normalized plain text.
package ingestion

import (
	"regexp"
	"strings"
)

var (
	horizontalSpaceRe = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	spaceAroundLFRe   = regexp.MustCompile(` ?\n ?`)
	blankLinesRe      = regexp.MustCompile(`\n{2,}`)
)

// Normalize collapses runs of horizontal whitespace to one space and runs of
// newlines to one newline, then trims the result. Whitespace-only lines count
// as blank. Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	content = horizontalSpaceRe.ReplaceAllString(content, " ")
	content = spaceAroundLFRe.ReplaceAllString(content, "\n")
	content = blankLinesRe.ReplaceAllString(content, "\n")

	return strings.TrimSpace(content)
}

// NonBlankLines returns the trimmed, non-empty lines of text in order
func NonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
