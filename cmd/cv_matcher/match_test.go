package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jonathan/cv-job-matcher/internal/jobsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jobAPI is a fake job-search API that records request bodies
type jobAPI struct {
	mu       sync.Mutex
	bodies   []jobsearch.SearchBody
	apiKeys  []string
	response string
}

func (a *jobAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body jobsearch.SearchBody
	_ = json.NewDecoder(r.Body).Decode(&body)
	a.mu.Lock()
	a.bodies = append(a.bodies, body)
	a.apiKeys = append(a.apiKeys, r.Header.Get("apikey"))
	a.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(a.response))
}

func newJobAPI(t *testing.T, response string) *jobAPI {
	t.Helper()
	api := &jobAPI{response: response}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	t.Setenv("APIJOBS_URL", srv.URL)
	return api
}

const jobHits = `{"ok": true, "hits": [
	{"title": "Software Engineer", "description": "3 years of experience", "company_name": "Acme"},
	{"title": "Head Chef", "company_name": "Bistro"}
]}`

func TestMatchCommand_FromResume(t *testing.T) {
	api := newJobAPI(t, jobHits)
	in := writeFile(t, t.TempDir(), "resume.txt", sampleResume)

	out, err := execute(t, "match", "--in", in, "--api-key", "test-key")
	require.NoError(t, err)

	var res jobsearch.MatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Jobs.OK)
	assert.Equal(t, 2, res.Jobs.TotalBeforeFilter)
	assert.Equal(t, 1, res.Jobs.AfterRoleFilter)
	assert.Equal(t, 1, res.Jobs.AfterExperienceFilter)
	require.Len(t, res.Jobs.Hits, 1)
	assert.Equal(t, "Acme", res.Jobs.Hits[0].String("company_name"))

	require.Len(t, api.bodies, 1)
	assert.Equal(t, jobsearch.SearchBody{From: 0, Size: 50, Query: "Software Engineer", Country: "Sri Lanka"}, api.bodies[0])
	assert.Equal(t, "test-key", api.apiKeys[0])
}

func TestMatchCommand_FromProfileJSON(t *testing.T) {
	api := newJobAPI(t, jobHits)
	dir := t.TempDir()
	in := writeFile(t, dir, "resume.txt", sampleResume)
	profilePath := filepath.Join(dir, "profile.json")

	_, err := execute(t, "extract", "--in", in, "--out", profilePath)
	require.NoError(t, err)

	t.Setenv("APIJOBS_KEY", "env-key")
	out, err := execute(t, "match", "--in", profilePath)
	require.NoError(t, err)

	var res jobsearch.MatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Software Engineer", res.Profile.Role.Canonical)
	assert.Equal(t, "env-key", api.apiKeys[0])
}

func TestMatchCommand_FailedSearch(t *testing.T) {
	newJobAPI(t, "<html>bad gateway</html>")
	in := writeFile(t, t.TempDir(), "resume.txt", sampleResume)

	out, err := execute(t, "match", "--in", in, "--api-key", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed search")

	// the result is still written so the API error can be inspected
	var res jobsearch.MatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Jobs.OK)
}

func TestMatchCommand_Errors(t *testing.T) {
	t.Setenv("APIJOBS_KEY", "")
	dir := t.TempDir()
	in := writeFile(t, dir, "resume.txt", sampleResume)
	badProfile := writeFile(t, dir, "profile.json", `{"location": {"mode": "nowhere"}}`)

	tests := []struct {
		name        string
		args        []string
		errorString string
	}{
		{"missing input", []string{"match", "--api-key", "k"}, "--in is required"},
		{"missing API key", []string{"match", "--in", in}, "API key is required"},
		{"invalid profile", []string{"match", "--in", badProfile, "--api-key", "k"}, "not a valid candidate profile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}
