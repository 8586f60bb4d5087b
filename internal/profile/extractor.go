// Package profile assembles a structured candidate profile from resume text.
package profile

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cv-job-matcher/internal/config"
	"github.com/jonathan/cv-job-matcher/internal/experience"
	"github.com/jonathan/cv-job-matcher/internal/ingestion"
	"github.com/jonathan/cv-job-matcher/internal/location"
	"github.com/jonathan/cv-job-matcher/internal/role"
	"github.com/jonathan/cv-job-matcher/internal/types"
)

// MentionRecognizer finds place names in text, typically with an NER model
type MentionRecognizer interface {
	Recognize(ctx context.Context, text string) ([]types.PlaceMention, error)
}

// Options configures an Extractor
type Options struct {
	Location   location.Options
	Role       role.Options
	Experience experience.Options

	// Debug attaches the experience trace to each profile
	Debug bool
	// Now stamps ExtractedAt; defaults to time.Now
	Now func() time.Time
	// NewID generates profile IDs; defaults to uuid.New
	NewID func() uuid.UUID
}

// OptionsFromConfig maps the extraction settings onto resolver options
func OptionsFromConfig(cfg config.Extraction) Options {
	return Options{
		Location: location.Options{CityMatchThreshold: cfg.CityMatchThreshold},
		Role: role.Options{
			TitleScanRatio:   cfg.TitleScanRatio,
			MinTitleLines:    cfg.MinTitleLines,
			MinTitleLen:      cfg.MinTitleLen,
			FuzzyTitleCutoff: cfg.FuzzyTitleCutoff,
			CanonicalCutoff:  cfg.RoleCanonicalCutoff,
		},
		Experience: experience.Options{MaxYears: cfg.MaxYears, Reconcile: cfg.Reconcile},
		Debug:      cfg.Debug,
	}
}

// Extractor runs the location, role and experience resolvers over a
// document. It is safe for concurrent use.
type Extractor struct {
	location   *location.Resolver
	role       *role.Resolver
	experience *experience.Estimator
	debug      bool
	now        func() time.Time
	newID      func() uuid.UUID
}

// NewExtractor builds the resolvers once; their tables and patterns are
// shared by every call
func NewExtractor(opts Options) *Extractor {
	e := &Extractor{
		location:   location.NewResolver(opts.Location),
		role:       role.NewResolver(opts.Role),
		experience: experience.NewEstimator(opts.Experience),
		debug:      opts.Debug,
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.New
	}
	return e
}

// WithDebug returns a copy of e that attaches experience traces when debug is set
func (e *Extractor) WithDebug(debug bool) *Extractor {
	c := *e
	c.debug = debug
	return &c
}

// Extract normalizes rawText and builds its profile. Entity mentions are
// merged after the gazetteer's own mentions. Missing signals leave fields
// empty; Extract never fails.
func (e *Extractor) Extract(rawText string, entityMentions []types.PlaceMention) *types.CandidateProfile {
	text := ingestion.Normalize(rawText)
	mentions := location.MergeMentions(e.location.Scan(text), entityMentions)

	est := e.experience.Estimate(text)
	exp := types.ExperienceResult{
		Years:         est.Years,
		SeniorityBand: experience.SeniorityBand(est.Years),
		Method:        est.Method,
	}
	if e.debug {
		trace := est.Trace
		exp.Debug = &trace
	}

	return &types.CandidateProfile{
		ID:          e.newID(),
		Location:    e.location.Resolve(text, mentions),
		Role:        e.role.Resolve(text),
		Experience:  exp,
		ExtractedAt: e.now().UTC(),
	}
}

// ExtractWithRecognizer asks rec for place mentions before extracting.
// A recognizer failure is logged and extraction continues with the
// gazetteer alone.
func (e *Extractor) ExtractWithRecognizer(ctx context.Context, rawText string, rec MentionRecognizer) *types.CandidateProfile {
	var mentions []types.PlaceMention
	if rec != nil {
		found, err := rec.Recognize(ctx, ingestion.Normalize(rawText))
		if err != nil {
			log.Printf("[profile] place recognition failed, using gazetteer only: %v", err)
		} else {
			mentions = found
		}
	}
	return e.Extract(rawText, mentions)
}
