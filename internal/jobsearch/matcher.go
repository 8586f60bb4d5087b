package jobsearch

import (
	"context"
	"log"

	"github.com/jonathan/cv-job-matcher/internal/types"
	"golang.org/x/sync/errgroup"
)

// JobsSummary reports the hits and how many survived each filter
type JobsSummary struct {
	OK                    bool  `json:"ok"`
	TotalBeforeFilter     int   `json:"total_before_filter"`
	AfterRoleFilter       int   `json:"after_role_filter"`
	AfterExperienceFilter int   `json:"after_experience_filter"`
	Hits                  []Hit `json:"hits"`
}

// MatchResult is the outcome of matching one profile against the API
type MatchResult struct {
	SearchParams SearchBody              `json:"search_params"`
	Profile      *types.CandidateProfile `json:"profile"`
	Jobs         JobsSummary             `json:"jobs"`
}

// MatcherOptions configures a Matcher. Nil fields take defaults; a non-nil
// 0 cushion filters on the candidate's exact years.
type MatcherOptions struct {
	TitleFilterCutoff *float64
	ExperienceCushion *float64
	// PageSize overrides the number of postings requested
	PageSize int
	Verbose  bool
}

// Matcher searches for jobs fitting a candidate profile
type Matcher struct {
	searcher Searcher
	opts     MatcherOptions
	cutoff   float64
	cushion  float64
}

// NewMatcher creates a Matcher over searcher
func NewMatcher(searcher Searcher, opts MatcherOptions) *Matcher {
	m := &Matcher{
		searcher: searcher,
		opts:     opts,
		cutoff:   DefaultTitleFilterCutoff,
		cushion:  DefaultExperienceCushion,
	}
	if opts.TitleFilterCutoff != nil {
		m.cutoff = *opts.TitleFilterCutoff
	}
	if opts.ExperienceCushion != nil {
		m.cushion = *opts.ExperienceCushion
	}
	return m
}

// Match queries by the profile's role and country, then filters the hits by
// title and by required experience. A filter that removes every hit is
// skipped, so a non-empty search never yields an empty match.
func (m *Matcher) Match(ctx context.Context, p *types.CandidateProfile) (*MatchResult, error) {
	query := p.Role.Canonical
	if query == "" {
		query = p.Role.Raw
	}
	body := BuildSearchBody(p.Location.Country, query)
	if m.opts.PageSize > 0 {
		body.Size = m.opts.PageSize
	}

	data, err := m.searcher.Search(ctx, body)
	if err != nil {
		return nil, err
	}
	hits := data.Hits
	if hits == nil {
		hits = []Hit{}
	}

	byRole := []Hit{}
	if len(hits) > 0 {
		byRole = FilterByRole(hits, p.Role.SynonymsUsed, m.cutoff)
	}
	roleOrAll := byRole
	if len(roleOrAll) == 0 {
		roleOrAll = hits
	}
	final := FilterByExperience(roleOrAll, p.Experience.Years, m.cushion)
	if len(final) == 0 {
		final = roleOrAll
	}

	if m.opts.Verbose {
		log.Printf("[jobsearch] q=%q country=%q: %d hits, %d after role filter, %d after experience filter",
			body.Query, body.Country, len(hits), len(byRole), len(final))
	}

	return &MatchResult{
		SearchParams: body,
		Profile:      p,
		Jobs: JobsSummary{
			OK:                    data.OK,
			TotalBeforeFilter:     len(hits),
			AfterRoleFilter:       len(byRole),
			AfterExperienceFilter: len(final),
			Hits:                  final,
		},
	}, nil
}

// MatchBatch matches profiles using up to workers concurrent searches.
// Results keep the order of profiles; the first failed search cancels the rest.
func (m *Matcher) MatchBatch(ctx context.Context, profiles []*types.CandidateProfile, workers int) ([]*MatchResult, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]*MatchResult, len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range profiles {
		g.Go(func() error {
			res, err := m.Match(gctx, p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
