package jobsearch

import "fmt"

// APICallError represents a failed call to the job-search API
type APICallError struct {
	URL     string
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("job search call to %s failed: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("job search call to %s failed: %s", e.URL, e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}
