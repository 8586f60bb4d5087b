package location

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/cv-job-matcher/internal/types"
)

// wordMatcher finds a phrase as a whole word, ignoring case
type wordMatcher struct {
	phrase string
	re     *regexp.Regexp
}

// newWordMatcher compiles phrase with letter/digit boundaries. Plain \b is not
// used because aliases such as "u.s." end in punctuation.
func newWordMatcher(phrase string) wordMatcher {
	pattern := `(?i)(?:^|[^\p{L}\p{N}])(` + regexp.QuoteMeta(phrase) + `)(?:$|[^\p{L}\p{N}])`
	return wordMatcher{phrase: phrase, re: regexp.MustCompile(pattern)}
}

// find returns the byte span of the first whole-word match, or -1
func (m wordMatcher) find(text string) (start, end int) {
	loc := m.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return -1, -1
	}
	return loc[2], loc[3]
}

func compileMatchers(phrases []string) []wordMatcher {
	matchers := make([]wordMatcher, 0, len(phrases))
	for _, p := range phrases {
		if strings.TrimSpace(p) == "" {
			continue
		}
		matchers = append(matchers, newWordMatcher(p))
	}
	return matchers
}

// Gazetteer scans text for known country and city names
type Gazetteer struct {
	countries []wordMatcher
	cities    []wordMatcher
}

// NewGazetteer compiles matchers for every catalogue country and table city
func NewGazetteer(catalogue Catalogue, tables *Tables) *Gazetteer {
	return &Gazetteer{
		countries: compileMatchers(catalogue.Names()),
		cities:    compileMatchers(tables.CityKeys()),
	}
}

type span struct {
	start, end int
	class      types.PlaceClass
}

// Scan returns the place names found in text in order of first occurrence.
// Mentions keep their surface form and are deduplicated case-insensitively.
// A name nested inside a longer match ("Guinea" in "Papua New Guinea") is dropped.
func (g *Gazetteer) Scan(text string) []types.PlaceMention {
	var spans []span
	collect := func(matchers []wordMatcher, class types.PlaceClass) {
		for _, m := range matchers {
			if start, end := m.find(text); start >= 0 {
				spans = append(spans, span{start: start, end: end, class: class})
			}
		}
	}
	collect(g.countries, types.PlaceCountry)
	collect(g.cities, types.PlaceCity)

	// earliest first; at the same offset the longer span, then countries
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		if spans[i].end != spans[j].end {
			return spans[i].end > spans[j].end
		}
		return spans[i].class == types.PlaceCountry && spans[j].class != types.PlaceCountry
	})

	mentions := make([]types.PlaceMention, 0, len(spans))
	seen := make(map[string]bool, len(spans))
	coveredUntil := -1
	for _, s := range spans {
		if s.start < coveredUntil {
			continue
		}
		coveredUntil = s.end
		surface := text[s.start:s.end]
		key := strings.ToLower(surface)
		if seen[key] {
			continue
		}
		seen[key] = true
		mentions = append(mentions, types.PlaceMention{Text: surface, Class: s.class, Origin: types.OriginGazetteer})
	}
	return mentions
}

// MergeMentions concatenates mention lists, keeping the first occurrence of
// each text compared case-insensitively
func MergeMentions(lists ...[]types.PlaceMention) []types.PlaceMention {
	var merged []types.PlaceMention
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, m := range list {
			key := strings.ToLower(strings.TrimSpace(m.Text))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, m)
		}
	}
	return merged
}
