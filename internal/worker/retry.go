package worker

import (
	"context"
	"fmt"
	"time"
)

// DefaultBackoff is the base delay between attempts; attempt i waits (i+1)*backoff
const DefaultBackoff = 500 * time.Millisecond

// retry calls fn up to attempts times with linearly growing waits. It gives
// up early when ctx is done.
func retry[T any](ctx context.Context, attempts int, backoff time.Duration, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(time.Duration(i+1) * backoff):
		case <-ctx.Done():
			return zero, fmt.Errorf("canceled after %d attempts: %w", i+1, lastErr)
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
