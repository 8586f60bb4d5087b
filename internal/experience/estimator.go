// Package experience estimates a candidate's years of professional experience
// from self-reported statements and employment date ranges.
package experience

import (
	"math"
	"time"

	"github.com/jonathan/cv-job-matcher/internal/types"
)

// Reconcile policies for combining explicit statements with date ranges
const (
	// ReconcileMax takes the larger of the highest explicit value and the range total
	ReconcileMax = "max"
	// ReconcileLatest takes the last explicit value in the document when one exists
	ReconcileLatest = "latest"
)

// DefaultMaxYears caps both explicit values and the final estimate
const DefaultMaxYears = 50

// Options configures an Estimator. Zero fields take defaults.
type Options struct {
	// Now resolves "Present" and "Current"; defaults to time.Now
	Now       func() time.Time
	MaxYears  int
	Reconcile string
}

// Estimator computes experience estimates. It is safe for concurrent use.
type Estimator struct {
	now       func() time.Time
	maxYears  int
	reconcile string
}

// NewEstimator creates an Estimator
func NewEstimator(opts Options) *Estimator {
	e := &Estimator{now: opts.Now, maxYears: opts.MaxYears, reconcile: opts.Reconcile}
	if e.now == nil {
		e.now = time.Now
	}
	if e.maxYears <= 0 {
		e.maxYears = DefaultMaxYears
	}
	if e.reconcile != ReconcileLatest {
		e.reconcile = ReconcileMax
	}
	return e
}

// Estimate extracts both experience signals from text and reconciles them.
// It never fails; text with no signal gives 0 years and method "none".
func (e *Estimator) Estimate(text string) types.ExperienceEstimate {
	explicit := ExplicitYears(text, e.maxYears)
	ranges, rangeTrace := ExtractRanges(text, e.now())
	merged := Merge(ranges)
	rangeYears := TotalYears(merged)

	var (
		years  float64
		method types.EstimateMethod
	)
	switch {
	case len(explicit) > 0 && rangeYears > 0:
		method = types.MethodCombined
		years = e.explicitValue(explicit)
		if e.reconcile == ReconcileMax {
			years = math.Max(years, rangeYears)
		}
	case len(explicit) > 0:
		method = types.MethodExplicit
		years = e.explicitValue(explicit)
	case rangeYears > 0:
		method = types.MethodRanges
		years = rangeYears
	default:
		method = types.MethodNone
	}

	years = math.Min(float64(e.maxYears), math.Max(0, round2(years)))

	if explicit == nil {
		explicit = []int{}
	}
	if rangeTrace == nil {
		rangeTrace = []types.RangeTrace{}
	}
	if merged == nil {
		merged = []types.DateRange{}
	}
	return types.ExperienceEstimate{
		Years:  years,
		Method: method,
		Trace:  types.ExperienceTrace{Explicit: explicit, Ranges: rangeTrace, Merged: merged},
	}
}

func (e *Estimator) explicitValue(values []int) float64 {
	if e.reconcile == ReconcileLatest {
		return float64(values[len(values)-1])
	}
	best := values[0]
	for _, v := range values[1:] {
		best = max(best, v)
	}
	return float64(best)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Seniority bands
const (
	BandEntry  = "Intern/Entry"
	BandJunior = "Junior"
	BandMid    = "Mid"
	BandSenior = "Senior"
	BandLead   = "Lead/Principal"
)

// SeniorityBand maps years of experience to a coarse level. Each band
// includes its lower bound.
func SeniorityBand(years float64) string {
	switch {
	case years < 1:
		return BandEntry
	case years < 3:
		return BandJunior
	case years < 6:
		return BandMid
	case years < 10:
		return BandSenior
	default:
		return BandLead
	}
}
