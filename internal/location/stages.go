package location

import (
	"regexp"
	"strings"

	"github.com/jonathan/cv-job-matcher/internal/fuzzy"
	"github.com/jonathan/cv-job-matcher/internal/types"
)

// Input is what every resolution stage sees
type Input struct {
	Text     string
	Mentions []types.PlaceMention
}

// Stage is one step of the location cascade
type Stage interface {
	// Name identifies the stage in traces
	Name() string
	// TryResolve returns a result and true when the stage found evidence
	TryResolve(in Input) (types.LocationResult, bool)
}

var aliasKeyRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.]`)

// aliasKey lowercases a mention and drops punctuation other than dots
func aliasKey(s string) string {
	return strings.ToLower(strings.TrimSpace(aliasKeyRe.ReplaceAllString(s, "")))
}

// DirectCountryStage accepts the first mention that is itself a country.
// Gazetteer countries are tried before recognizer mentions.
type DirectCountryStage struct {
	Tables    *Tables
	Catalogue Catalogue
}

func (s *DirectCountryStage) Name() string { return "direct_country" }

func (s *DirectCountryStage) TryResolve(in Input) (types.LocationResult, bool) {
	for _, m := range countryCandidates(in.Mentions) {
		if country, ok := s.Tables.AliasCountry(aliasKey(m.Text)); ok {
			return types.LocationResult{Country: country, Mode: types.ModeCountry}, true
		}
		if country, ok := s.Catalogue.Lookup(m.Text); ok {
			return types.LocationResult{Country: country, Mode: types.ModeCountry}, true
		}
	}
	return types.LocationResult{}, false
}

func countryCandidates(mentions []types.PlaceMention) []types.PlaceMention {
	var out []types.PlaceMention
	for _, m := range mentions {
		if m.Origin == types.OriginGazetteer && m.Class == types.PlaceCountry {
			out = append(out, m)
		}
	}
	for _, m := range mentions {
		if m.Origin == types.OriginEntity {
			out = append(out, m)
		}
	}
	return out
}

// AliasScanStage looks for any alias anywhere in the text, in table order
type AliasScanStage struct {
	aliases  []Alias
	matchers []wordMatcher
}

// NewAliasScanStage compiles one matcher per alias
func NewAliasScanStage(tables *Tables) *AliasScanStage {
	aliases := tables.Aliases()
	phrases := make([]string, len(aliases))
	for i, a := range aliases {
		phrases[i] = a.Alias
	}
	return &AliasScanStage{aliases: aliases, matchers: compileMatchers(phrases)}
}

func (s *AliasScanStage) Name() string { return "alias_scan" }

func (s *AliasScanStage) TryResolve(in Input) (types.LocationResult, bool) {
	for i, m := range s.matchers {
		if start, _ := m.find(in.Text); start >= 0 {
			return types.LocationResult{Country: s.aliases[i].Canonical, Mode: types.ModeCountry}, true
		}
	}
	return types.LocationResult{}, false
}

// CountryNameScanStage looks for full country names in catalogue order
type CountryNameScanStage struct {
	matchers []wordMatcher
}

// NewCountryNameScanStage reuses the gazetteer's compiled country matchers
func NewCountryNameScanStage(g *Gazetteer) *CountryNameScanStage {
	return &CountryNameScanStage{matchers: g.countries}
}

func (s *CountryNameScanStage) Name() string { return "country_name_scan" }

func (s *CountryNameScanStage) TryResolve(in Input) (types.LocationResult, bool) {
	for _, m := range s.matchers {
		if start, _ := m.find(in.Text); start >= 0 {
			return types.LocationResult{Country: m.phrase, Mode: types.ModeCountry}, true
		}
	}
	return types.LocationResult{}, false
}

// CityCountryStage maps the first resolvable city candidate to its country.
// Candidates without an exact table entry are fuzzy matched against every
// known city and accepted at or above Threshold.
type CityCountryStage struct {
	Tables    *Tables
	Scorer    fuzzy.Scorer
	Threshold float64
}

func (s *CityCountryStage) Name() string { return "city_to_country" }

func (s *CityCountryStage) TryResolve(in Input) (types.LocationResult, bool) {
	for _, c := range cityCandidates(in.Mentions) {
		key := strings.ToLower(c)
		if country, ok := s.Tables.CityCountry(key); ok {
			return types.LocationResult{Country: country, City: c, Mode: types.ModeCityToCountry}, true
		}
		match, score, idx := fuzzy.ExtractOne(key, s.Tables.CityKeys(), s.Scorer)
		if idx >= 0 && score >= s.Threshold {
			country, _ := s.Tables.CityCountry(match)
			return types.LocationResult{Country: country, City: c, Mode: types.ModeCityToCountry}, true
		}
	}
	return types.LocationResult{}, false
}

// CityOnlyStage reports the first city candidate without a country
type CityOnlyStage struct{}

func (CityOnlyStage) Name() string { return "city_only" }

func (CityOnlyStage) TryResolve(in Input) (types.LocationResult, bool) {
	candidates := cityCandidates(in.Mentions)
	if len(candidates) == 0 {
		return types.LocationResult{}, false
	}
	return types.LocationResult{City: candidates[0], Mode: types.ModeCityOnly}, true
}

// cityCandidates returns gazetteer cities followed by recognizer mentions
// not already in the pool
func cityCandidates(mentions []types.PlaceMention) []string {
	var pool []string
	seen := make(map[string]bool)
	add := func(text string) {
		text = strings.TrimSpace(text)
		key := strings.ToLower(text)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		pool = append(pool, text)
	}
	for _, m := range mentions {
		if m.Origin == types.OriginGazetteer && m.Class == types.PlaceCity {
			add(m.Text)
		}
	}
	for _, m := range mentions {
		if m.Origin == types.OriginEntity {
			add(m.Text)
		}
	}
	return pool
}
