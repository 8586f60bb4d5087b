package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/cv-job-matcher/internal/db"
	"github.com/jonathan/cv-job-matcher/internal/experience"
	"github.com/jonathan/cv-job-matcher/internal/metrics"
	"github.com/jonathan/cv-job-matcher/internal/profile"
	"github.com/jonathan/cv-job-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = "Jane Doe\nColombo, Sri Lanka\nSenior Software Engineer\n" +
	"Acme Corp, Jan 2015 - Present\nBuilt payment systems."

type fakePublisher struct {
	mu       sync.Mutex
	statuses []types.JobStatus
	err      error
}

func (f *fakePublisher) PublishStatus(_ context.Context, s types.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, s)
	return f.err
}

func (f *fakePublisher) states() []string {
	out := make([]string, len(f.statuses))
	for i, s := range f.statuses {
		out[i] = s.Status
	}
	return out
}

type fakeObjects struct {
	data     map[string][]byte
	failures int
	calls    int
}

func (f *fakeObjects) Download(_ context.Context, key string) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	data, ok := f.data[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

type fakeSaver struct {
	saved  []*types.CandidateProfile
	names  []string
	source string
	err    error
}

func (f *fakeSaver) SaveProfile(_ context.Context, p *types.CandidateProfile, source, name string) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, p)
	f.names = append(f.names, name)
	f.source = source
	return nil
}

// scrape returns m's text exposition
func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func sample(status string) string {
	return `worker_jobs_total{status="` + status + `"} 1`
}

func newTestProcessor(t *testing.T, opts ProcessorOptions) (*Processor, *metrics.Metrics) {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC) }
	opts.Extractor = profile.NewExtractor(profile.Options{Experience: experience.Options{Now: clock}, Now: clock})
	opts.Metrics = metrics.New()
	opts.Backoff = time.Millisecond
	p, err := NewProcessor(opts)
	require.NoError(t, err)
	return p, opts.Metrics
}

func TestNewProcessor_Requires(t *testing.T) {
	_, err := NewProcessor(ProcessorOptions{Publisher: &fakePublisher{}})
	assert.Error(t, err)

	_, err = NewProcessor(ProcessorOptions{Extractor: profile.NewExtractor(profile.Options{})})
	assert.Error(t, err)
}

func TestProcess_InlineText(t *testing.T) {
	pub := &fakePublisher{}
	saver := &fakeSaver{}
	p, m := newTestProcessor(t, ProcessorOptions{Publisher: pub, Store: saver})

	err := p.Process(context.Background(), []byte(`{"id":"job-1","name":"jane.txt","text":"`+
		"Jane Doe\\nColombo, Sri Lanka\\nSenior Software Engineer"+`"}`))
	require.NoError(t, err)

	assert.Equal(t, []string{types.JobProcessing, types.JobCompleted}, pub.states())
	final := pub.statuses[1]
	assert.Equal(t, "job-1", final.ID)
	require.NotNil(t, final.Profile)
	assert.Equal(t, "Software Engineer", final.Profile.Role.Canonical)

	require.Len(t, saver.saved, 1)
	assert.Equal(t, db.SourceWorker, saver.source)
	assert.Equal(t, []string{"jane.txt"}, saver.names)
	assert.Contains(t, scrape(t, m), sample(types.JobCompleted))
}

func TestProcess_DownloadWithRetry(t *testing.T) {
	pub := &fakePublisher{}
	objects := &fakeObjects{data: map[string][]byte{"uploads/jane.txt": []byte(sampleResume)}, failures: 2}
	saver := &fakeSaver{}
	p, _ := newTestProcessor(t, ProcessorOptions{Publisher: pub, Objects: objects, Store: saver})

	require.NoError(t, p.Process(context.Background(), []byte(`{"id":"job-2","object_key":"uploads/jane.txt"}`)))

	assert.Equal(t, 3, objects.calls)
	assert.Equal(t, []string{"uploads/jane.txt"}, saver.names, "object key names the profile when no name is given")
	assert.Equal(t, "Sri Lanka", pub.statuses[1].Profile.Location.Country)
}

func TestProcess_DownloadFails(t *testing.T) {
	pub := &fakePublisher{}
	objects := &fakeObjects{failures: 10}
	p, m := newTestProcessor(t, ProcessorOptions{Publisher: pub, Objects: objects})

	err := p.Process(context.Background(), []byte(`{"id":"job-3","object_key":"uploads/jane.pdf"}`))
	require.Error(t, err)

	var invalid *InvalidJobError
	assert.False(t, errors.As(err, &invalid), "download failures are retryable")
	assert.Equal(t, DefaultAttempts, objects.calls)
	assert.Equal(t, []string{types.JobProcessing, types.JobFailed}, pub.states())
	assert.Contains(t, pub.statuses[1].Error, "file download error")
	assert.Contains(t, scrape(t, m), sample(types.JobFailed))
}

func TestProcess_InvalidJobs(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		published []string
	}{
		{"malformed", `{"id":`, []string{}},
		{"missing id", `{"text":"Jane Doe, Software Engineer"}`, []string{types.JobFailed}},
		{"no document", `{"id":"job-4"}`, []string{types.JobFailed}},
		{"unsupported format", `{"id":"job-5","object_key":"uploads/jane.doc"}`, []string{types.JobProcessing, types.JobFailed}},
		{"no object store", `{"id":"job-6","object_key":"uploads/jane.txt"}`, []string{types.JobProcessing, types.JobFailed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			opts := ProcessorOptions{Publisher: pub}
			if tt.name != "no object store" {
				opts.Objects = &fakeObjects{data: map[string][]byte{"uploads/jane.doc": []byte(sampleResume)}}
			}
			p, m := newTestProcessor(t, opts)

			err := p.Process(context.Background(), []byte(tt.body))
			var invalid *InvalidJobError
			require.True(t, errors.As(err, &invalid), "error %v", err)
			assert.Equal(t, tt.published, pub.states())
			if len(tt.published) < 2 {
				assert.Contains(t, scrape(t, m), sample("invalid"))
			}
		})
	}
}

func TestProcess_SaveFails(t *testing.T) {
	pub := &fakePublisher{}
	saver := &fakeSaver{err: errors.New("pool closed")}
	p, _ := newTestProcessor(t, ProcessorOptions{Publisher: pub, Store: saver})

	err := p.Process(context.Background(), []byte(`{"id":"job-7","text":"`+"Jane Doe\\nSoftware Engineer\\nColombo"+`"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save profile")
	assert.Equal(t, types.JobFailed, pub.statuses[len(pub.statuses)-1].Status)
}

func TestProcess_PublishErrorsIgnored(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	p, _ := newTestProcessor(t, ProcessorOptions{Publisher: pub})

	err := p.Process(context.Background(), []byte(`{"id":"job-8","text":"`+"Jane Doe\\nSoftware Engineer\\nColombo"+`"}`))
	assert.NoError(t, err)
	assert.Len(t, pub.statuses, 2)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "profile.job-1", RoutingKey("job-1"))
}

func TestNewPool_Defaults(t *testing.T) {
	pool := NewPool(nil, nil, PoolOptions{})
	assert.Equal(t, DefaultQueue, pool.opts.Queue)
	assert.Equal(t, DefaultWorkers, pool.opts.Workers)
}
