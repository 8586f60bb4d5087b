package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonathan/cv-job-matcher/internal/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveProfile(t *testing.T) {
	m := New()
	p := &types.CandidateProfile{
		Location:   types.LocationResult{Country: "Canada", City: "Toronto", Mode: types.ModeCityToCountry},
		Experience: types.ExperienceResult{Method: types.MethodRanges},
	}

	m.ObserveProfile(p, "cli", 20*time.Millisecond)
	m.ObserveProfile(p, "cli", 30*time.Millisecond)
	m.ObserveProfile(p, "api", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.profilesExtracted.WithLabelValues("cli")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.profilesExtracted.WithLabelValues("api")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.locationModes.WithLabelValues("city_to_country")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.experienceMethods.WithLabelValues("ranges")))
}

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
	m.ObserveHTTP(http.MethodPost, "/profiles", http.StatusBadRequest, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/profiles", "400")))
}

func TestObserveCounters(t *testing.T) {
	m := New()
	m.ObserveJobSearch("ok")
	m.ObserveJobSearch("error")
	m.ObserveWorkerJob("completed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobSearches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobSearches.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workerJobs.WithLabelValues("completed")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveJobSearch("ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `job_searches_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveWorkerJob("failed")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.workerJobs.WithLabelValues("failed")))
}
