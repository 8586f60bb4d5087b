// Package location resolves a candidate's country and city from resume text.
package location

import (
	"github.com/jonathan/cv-job-matcher/internal/fuzzy"
	"github.com/jonathan/cv-job-matcher/internal/types"
)

// DefaultCityMatchThreshold is the minimum similarity (0-100) for a fuzzy city match
const DefaultCityMatchThreshold = 90.0

// Options configures a Resolver. Zero fields take defaults; a non-nil
// CityMatchThreshold of 0 accepts any fuzzy city match.
type Options struct {
	CityMatchThreshold *float64
	CityScorer         fuzzy.Scorer
	Tables             *Tables
	Catalogue          Catalogue
}

func (o Options) withDefaults() Options {
	if o.CityMatchThreshold == nil {
		v := DefaultCityMatchThreshold
		o.CityMatchThreshold = &v
	}
	if o.CityScorer == nil {
		o.CityScorer = fuzzy.TokenSetRatio
	}
	if o.Tables == nil {
		o.Tables = DefaultTables()
	}
	if o.Catalogue == nil {
		o.Catalogue = DefaultCatalogue()
	}
	return o
}

// Resolver runs the location stages in order; the first stage with
// evidence wins. It is safe for concurrent use.
type Resolver struct {
	gazetteer *Gazetteer
	stages    []Stage
}

// NewResolver builds the standard cascade: direct country mention, alias
// scan, full country name scan, city to country, city only.
func NewResolver(opts Options) *Resolver {
	opts = opts.withDefaults()
	tables := opts.Tables.WithCatalogue(opts.Catalogue)
	g := NewGazetteer(opts.Catalogue, tables)
	return &Resolver{
		gazetteer: g,
		stages: []Stage{
			&DirectCountryStage{Tables: tables, Catalogue: opts.Catalogue},
			NewAliasScanStage(tables),
			NewCountryNameScanStage(g),
			&CityCountryStage{Tables: tables, Scorer: opts.CityScorer, Threshold: *opts.CityMatchThreshold},
			CityOnlyStage{},
		},
	}
}

// NewResolverWithStages builds a resolver over a custom stage list
func NewResolverWithStages(g *Gazetteer, stages ...Stage) *Resolver {
	return &Resolver{gazetteer: g, stages: stages}
}

// Scan returns the gazetteer mentions for text
func (r *Resolver) Scan(text string) []types.PlaceMention {
	if r.gazetteer == nil {
		return nil
	}
	return r.gazetteer.Scan(text)
}

// Resolve picks the best location for text given its place mentions.
// With no evidence at all the result has mode fallback and no fields set,
// which callers treat as "no country filter".
func (r *Resolver) Resolve(text string, mentions []types.PlaceMention) types.LocationResult {
	result, _ := r.ResolveStage(text, mentions)
	return result
}

// ResolveStage is Resolve plus the name of the stage that answered,
// or "fallback"
func (r *Resolver) ResolveStage(text string, mentions []types.PlaceMention) (types.LocationResult, string) {
	in := Input{Text: text, Mentions: mentions}
	for _, stage := range r.stages {
		if result, ok := stage.TryResolve(in); ok {
			if result.Mode == types.ModeCountry {
				result.City = ""
			}
			return result, stage.Name()
		}
	}
	return types.LocationResult{Mode: types.ModeFallback}, string(types.ModeFallback)
}
