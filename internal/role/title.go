package role

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/cv-job-matcher/internal/fuzzy"
	"github.com/jonathan/cv-job-matcher/internal/ingestion"
)

var (
	// optional seniority, optional domain, required head; run on lowercased lines
	titleGrammarRe = regexp.MustCompile(`(senior|staff|principal|lead|junior)?\s*` +
		`(data|software|ml|ai|devops|site reliability|full\s*stack|front\s*end|back\s*end|product|project|security|cybersecurity|digital|marketing)?\s*` +
		`(engineer|developer|scientist|manager|architect|analyst|designer|marketer|accountant)`)

	wordTokenRe = regexp.MustCompile(`[A-Za-z][A-Za-z.+#/]*`)

	capitalizedTitleRe = regexp.MustCompile(`([A-Z][a-zA-Z+/#]{2,}\s+){0,3}(Engineer|Developer|Scientist|Manager|Architect|Analyst|Marketer|Accountant)\b`)

	spaceRunRe = regexp.MustCompile(`\s+`)
)

// headLines returns the first ratio of non-blank lines, at least minLines
func headLines(text string, ratio float64, minLines int) []string {
	lines := ingestion.NonBlankLines(text)
	n := max(minLines, int(float64(len(lines))*ratio))
	if n > len(lines) {
		n = len(lines)
	}
	return lines[:n]
}

// ExtractRawTitle finds the job title phrase in the header region of text.
// It returns "" when no line looks like a title.
func (r *Resolver) ExtractRawTitle(text string) string {
	head := headLines(text, r.opts.TitleScanRatio, r.opts.MinTitleLines)

	for _, line := range head {
		low := strings.ToLower(line)
		if utf8.RuneCountInString(low) < r.opts.MinTitleLen {
			continue
		}
		if m := titleGrammarRe.FindString(low); m != "" {
			return NormalizeTitle(m)
		}
	}

	for _, line := range head {
		if utf8.RuneCountInString(line) < r.opts.MinTitleLen {
			continue
		}
		_, score, idx := fuzzy.ExtractOne(strings.ToLower(line), titleHeads, fuzzy.PartialRatio)
		if idx >= 0 && score >= *r.opts.FuzzyTitleCutoff {
			return NormalizeTitle(line)
		}
	}

	prefix := truncateRunes(text, r.opts.FallbackScanChars)
	joined := strings.Join(wordTokenRe.FindAllString(prefix, -1), " ")
	if m := capitalizedTitleRe.FindString(joined); m != "" {
		return NormalizeTitle(m)
	}
	return ""
}

// truncateRunes returns the first n runes of s
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// NormalizeTitle collapses whitespace, trims surrounding " .,-" and
// capitalizes each word. All-uppercase words of up to four characters
// such as "QA" or "AI" are kept as written.
func NormalizeTitle(title string) string {
	title = strings.Trim(spaceRunRe.ReplaceAllString(title, " "), " .,-")
	words := strings.Fields(title)
	for i, w := range words {
		if isUpper(w) && utf8.RuneCountInString(w) <= 4 {
			continue
		}
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// isUpper reports whether w has at least one letter and no lowercase letters
func isUpper(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	first, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
}
