// Package metrics exposes Prometheus collectors for the HTTP API, profile
// extraction, job search and the queue worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/cv-job-matcher/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors and the registry they are registered with
type Metrics struct {
	registry *prometheus.Registry

	httpDuration *prometheus.SummaryVec
	httpRequests *prometheus.CounterVec

	profilesExtracted  *prometheus.CounterVec
	locationModes      *prometheus.CounterVec
	experienceMethods  *prometheus.CounterVec
	extractionDuration prometheus.Summary
	jobSearches        *prometheus.CounterVec
	workerJobs         *prometheus.CounterVec
}

// New creates a Metrics with its own registry, including the Go runtime and
// process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpDuration: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request duration in seconds",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.95: 0.005,
					0.99: 0.001,
				},
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		profilesExtracted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "profiles_extracted_total",
				Help: "Candidate profiles extracted, by input source",
			},
			[]string{"source"},
		),
		locationModes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "location_resolutions_total",
				Help: "Location resolutions, by resolution mode",
			},
			[]string{"mode"},
		),
		experienceMethods: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "experience_estimates_total",
				Help: "Experience estimates, by estimation method",
			},
			[]string{"method"},
		),
		extractionDuration: factory.NewSummary(prometheus.SummaryOpts{
			Name:       "profile_extraction_duration_seconds",
			Help:       "Time to extract one candidate profile",
			Objectives: map[float64]float64{0.5: 0.05, 0.99: 0.001},
		}),
		jobSearches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_searches_total",
				Help: "Job-search API calls, by outcome",
			},
			[]string{"outcome"},
		),
		workerJobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worker_jobs_total",
				Help: "Queue jobs processed, by final status",
			},
			[]string{"status"},
		),
	}
}

// Registry returns the registry the collectors are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
	m.httpRequests.WithLabelValues(method, path, code).Inc()
}

// ObserveProfile records an extracted profile and how long it took
func (m *Metrics) ObserveProfile(p *types.CandidateProfile, source string, d time.Duration) {
	m.profilesExtracted.WithLabelValues(source).Inc()
	m.locationModes.WithLabelValues(string(p.Location.Mode)).Inc()
	m.experienceMethods.WithLabelValues(string(p.Experience.Method)).Inc()
	m.extractionDuration.Observe(d.Seconds())
}

// ObserveJobSearch records a job-search call outcome ("ok", "not_ok", "error")
func (m *Metrics) ObserveJobSearch(outcome string) {
	m.jobSearches.WithLabelValues(outcome).Inc()
}

// ObserveWorkerJob records a finished queue job
func (m *Metrics) ObserveWorkerJob(status string) {
	m.workerJobs.WithLabelValues(status).Inc()
}
