// Package jobsearch queries the job-search API with a candidate profile and
// narrows the returned postings on the client side.
package jobsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// Defaults for the job-search API
const (
	DefaultURL      = "https://api.apijobs.dev/v1/job/search"
	DefaultPageSize = 50
	DefaultTimeout  = 30 * time.Second
)

// maxBodyBytes caps how much of a response is read
const maxBodyBytes = 10 << 20

// SearchBody is the request payload. Query and Country are omitted when empty.
type SearchBody struct {
	From    int    `json:"from"`
	Size    int    `json:"size"`
	Query   string `json:"q,omitempty"`
	Country string `json:"country,omitempty"`
}

// BuildSearchBody builds the first-page request for a role in a country.
// The city is never sent; the API filters on country only.
func BuildSearchBody(country, role string) SearchBody {
	return SearchBody{
		From:    0,
		Size:    DefaultPageSize,
		Query:   strings.TrimSpace(role),
		Country: strings.TrimSpace(country),
	}
}

// Hit is a single job posting. Postings are kept as decoded JSON so that
// fields the API adds are passed through untouched.
type Hit map[string]any

// String returns the string value of key, or "" when absent or not a string
func (h Hit) String(key string) string {
	v, _ := h[key].(string)
	return v
}

// Title returns the posting title, falling back to job_title
func (h Hit) Title() string {
	if t := h.String("title"); t != "" {
		return t
	}
	return h.String("job_title")
}

// SearchResult is the decoded API response. A response that is not JSON is
// reported with OK false, Error "Non-JSON response" and the raw body in Text.
type SearchResult struct {
	OK         bool   `json:"ok"`
	Hits       []Hit  `json:"hits"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Text       string `json:"text,omitempty"`
}

// Searcher runs a job search
type Searcher interface {
	Search(ctx context.Context, body SearchBody) (*SearchResult, error)
}

// Options configures a Client. Zero fields take defaults.
type Options struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the job-search API
type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

// NewClient creates a Client
func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{url: opts.URL, apiKey: opts.APIKey, http: httpClient}
}

// Search posts body to the API. Transport failures are returned as
// *APICallError; any HTTP response, whatever its status, yields a result.
func (c *Client) Search(ctx context.Context, body SearchBody) (*SearchResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &APICallError{URL: c.url, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &APICallError{URL: c.url, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APICallError{URL: c.url, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &APICallError{URL: c.url, Message: "failed to read response", Cause: err}
	}

	var result SearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return &SearchResult{
			OK:         false,
			Error:      "Non-JSON response",
			StatusCode: resp.StatusCode,
			Text:       string(raw),
		}, nil
	}
	return &result, nil
}
