// Package role extracts a candidate's job title and maps it to a canonical role.
package role

import (
	"strings"
	"unicode/utf8"

	"github.com/jonathan/cv-job-matcher/internal/fuzzy"
	"github.com/jonathan/cv-job-matcher/internal/types"
)

// Defaults for Options
const (
	DefaultTitleScanRatio    = 0.25
	DefaultMinTitleLines     = 3
	DefaultMinTitleLen       = 6
	DefaultFuzzyTitleCutoff  = 80.0
	DefaultCanonicalCutoff   = 80.0
	DefaultFallbackScanChars = 2000
)

// acronymMaxLen is the length at or below which a synonym must appear as a
// whole word. Substring scoring would let "se" match "nurse".
const acronymMaxLen = 3

// Options configures a Resolver. Zero fields take defaults; the cutoffs
// are pointers so that an explicit 0 accepts every score.
type Options struct {
	TitleScanRatio    float64
	MinTitleLines     int
	MinTitleLen       int
	FuzzyTitleCutoff  *float64
	CanonicalCutoff   *float64
	FallbackScanChars int
	Labels            []Label
}

func (o Options) withDefaults() Options {
	if o.TitleScanRatio <= 0 {
		o.TitleScanRatio = DefaultTitleScanRatio
	}
	if o.MinTitleLines <= 0 {
		o.MinTitleLines = DefaultMinTitleLines
	}
	if o.MinTitleLen <= 0 {
		o.MinTitleLen = DefaultMinTitleLen
	}
	if o.FuzzyTitleCutoff == nil {
		v := DefaultFuzzyTitleCutoff
		o.FuzzyTitleCutoff = &v
	}
	if o.CanonicalCutoff == nil {
		v := DefaultCanonicalCutoff
		o.CanonicalCutoff = &v
	}
	if o.FallbackScanChars <= 0 {
		o.FallbackScanChars = DefaultFallbackScanChars
	}
	if o.Labels == nil {
		o.Labels = DefaultLabels()
	}
	return o
}

// Resolver extracts and canonicalizes job titles. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	opts   Options
	labels map[string]int
}

// NewResolver creates a Resolver
func NewResolver(opts Options) *Resolver {
	opts = opts.withDefaults()
	labels := make(map[string]int, len(opts.Labels))
	for i, l := range opts.Labels {
		labels[l.Name] = i
	}
	return &Resolver{opts: opts, labels: labels}
}

// Resolve extracts the raw title from text and canonicalizes it.
// A document without a recognizable title yields an empty result.
func (r *Resolver) Resolve(text string) types.RoleResult {
	raw := r.ExtractRawTitle(text)
	canonical := r.Canonicalize(raw)
	synonyms := r.Synonyms(canonical)
	if synonyms == nil {
		synonyms = []string{}
	}
	return types.RoleResult{Raw: raw, Canonical: canonical, SynonymsUsed: synonyms}
}

// Canonicalize maps a raw title to the best matching role label. When no
// synonym scores at least CanonicalCutoff the normalized raw title is
// returned instead.
func (r *Resolver) Canonicalize(raw string) string {
	label, ok := r.bestLabel(raw)
	if ok {
		return label
	}
	return NormalizeTitle(raw)
}

func (r *Resolver) bestLabel(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	cand := strings.ToLower(raw)

	var (
		bestLabel string
		bestScore float64
	)
	for _, l := range r.opts.Labels {
		for _, phrase := range l.Synonyms {
			if score := synonymScore(cand, phrase); score > bestScore {
				bestLabel, bestScore = l.Name, score
			}
		}
		if score := synonymScore(cand, strings.ToLower(l.Name)); score > bestScore {
			bestLabel, bestScore = l.Name, score
		}
	}
	return bestLabel, bestScore >= *r.opts.CanonicalCutoff
}

// synonymScore is the partial ratio of title against phrase, except that
// short acronyms score 100 only when present as a whole word
func synonymScore(title, phrase string) float64 {
	if utf8.RuneCountInString(phrase) <= acronymMaxLen {
		for _, w := range strings.FieldsFunc(title, isWordSeparator) {
			if w == phrase {
				return 100
			}
		}
		return 0
	}
	return fuzzy.PartialRatio(title, phrase)
}

func isWordSeparator(r rune) bool {
	return r == ' ' || r == '/' || r == ',' || r == '-' || r == '(' || r == ')' || r == '.'
}

// Synonyms returns the search terms for a label or title: the label and
// its synonyms when it resolves to a known label, otherwise the normalized
// title alone. Empty input gives nil.
func (r *Resolver) Synonyms(labelOrTitle string) []string {
	if strings.TrimSpace(labelOrTitle) == "" {
		return nil
	}
	if i, ok := r.labels[labelOrTitle]; ok {
		return r.expand(i)
	}
	best := r.Canonicalize(labelOrTitle)
	if i, ok := r.labels[best]; ok {
		return r.expand(i)
	}
	if best == "" {
		return nil
	}
	return []string{best}
}

func (r *Resolver) expand(i int) []string {
	l := r.opts.Labels[i]
	out := make([]string, 0, len(l.Synonyms)+1)
	seen := make(map[string]bool, len(l.Synonyms)+1)
	for _, s := range append([]string{l.Name}, l.Synonyms...) {
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
