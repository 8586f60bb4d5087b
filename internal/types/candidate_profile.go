// Package types provides type definitions for structured data used throughout the cv-job-matcher system.
package types

import (
	"time"

	"github.com/google/uuid"
)

// PlaceClass tags a place mention as country-like or city-like
type PlaceClass string

const (
	// PlaceCountry marks a mention recognized as a country
	PlaceCountry PlaceClass = "country"
	// PlaceCity marks any other place mention (city, region, unknown GPE)
	PlaceCity PlaceClass = "city"
)

// MentionOrigin records which collaborator produced a place mention
type MentionOrigin string

const (
	// OriginGazetteer is a mention found by scanning the static place tables
	OriginGazetteer MentionOrigin = "gazetteer"
	// OriginEntity is a mention produced by the named-entity recognizer
	OriginEntity MentionOrigin = "entity"
)

// PlaceMention is a single place-name token found in a document
type PlaceMention struct {
	Text   string        `json:"text" validate:"required,max=200"`
	Class  PlaceClass    `json:"class" validate:"omitempty,oneof=country city"`
	Origin MentionOrigin `json:"origin" validate:"omitempty,oneof=gazetteer entity"`
}

// ResolutionMode describes which location stage produced the result
type ResolutionMode string

const (
	// ModeCountry means a country was found directly in the text or mentions
	ModeCountry ResolutionMode = "country"
	// ModeCityToCountry means a city was found and mapped to its country
	ModeCityToCountry ResolutionMode = "city_to_country"
	// ModeCityOnly means a city was found but could not be mapped to a country
	ModeCityOnly ResolutionMode = "city_only"
	// ModeFallback means no location evidence was found
	ModeFallback ResolutionMode = "fallback"
)

// LocationResult is the outcome of location resolution.
// City is always empty when Mode is ModeCountry.
type LocationResult struct {
	Country string         `json:"country,omitempty"`
	City    string         `json:"city,omitempty"`
	Mode    ResolutionMode `json:"mode"`
}

// RoleResult holds the extracted and canonicalized job title
type RoleResult struct {
	Raw          string   `json:"raw"`
	Canonical    string   `json:"canonical"`
	SynonymsUsed []string `json:"synonyms_used"`
}

// DateRange is an employment interval with month granularity.
// (EndYear, EndMonth) is never before (StartYear, StartMonth).
type DateRange struct {
	StartYear  int `json:"start_year"`
	StartMonth int `json:"start_month"`
	EndYear    int `json:"end_year"`
	EndMonth   int `json:"end_month"`
}

// Years returns the fractional length of the range in years, floored at zero
func (r DateRange) Years() float64 {
	months := (r.EndYear-r.StartYear)*12 + (r.EndMonth - r.StartMonth)
	if months <= 0 {
		return 0
	}
	return float64(months) / 12.0
}

// EstimateMethod names the signal(s) the experience estimate came from
type EstimateMethod string

const (
	// MethodExplicit means only self-reported "N years" statements were found
	MethodExplicit EstimateMethod = "explicit"
	// MethodRanges means only employment date ranges were found
	MethodRanges EstimateMethod = "ranges"
	// MethodCombined means both signals were found and reconciled
	MethodCombined EstimateMethod = "combined"
	// MethodNone means neither signal was found; years is 0
	MethodNone EstimateMethod = "none"
)

// RangeTrace records one date range the estimator saw
type RangeTrace struct {
	Family    string  `json:"type"` // "month-year" or "year-year"
	From      string  `json:"from"`
	To        string  `json:"to"`
	Years     float64 `json:"years"`
	Discarded string  `json:"discarded,omitempty"`
}

// ExperienceTrace is the debug record of an experience estimate
type ExperienceTrace struct {
	Explicit []int        `json:"explicit"`
	Ranges   []RangeTrace `json:"ranges"`
	Merged   []DateRange  `json:"merged"`
}

// ExperienceEstimate is the reconciled years-of-experience value
type ExperienceEstimate struct {
	Years  float64         `json:"years"`
	Method EstimateMethod  `json:"method"`
	Trace  ExperienceTrace `json:"trace"`
}

// ExperienceResult is the experience section of a candidate profile
type ExperienceResult struct {
	Years         float64          `json:"years"`
	SeniorityBand string           `json:"seniority_band"`
	Method        EstimateMethod   `json:"method"`
	Debug         *ExperienceTrace `json:"debug,omitempty"`
}

// CandidateProfile is the assembled output of the profile extractor
type CandidateProfile struct {
	ID          uuid.UUID        `json:"id"`
	Location    LocationResult   `json:"location"`
	Role        RoleResult       `json:"role"`
	Experience  ExperienceResult `json:"experience"`
	ExtractedAt time.Time        `json:"extracted_at"`
}
