package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	calls := 0
	got, err := retry(context.Background(), 3, time.Millisecond, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUp(t *testing.T) {
	cause := errors.New("still down")
	calls := 0
	_, err := retry(context.Background(), 2, time.Millisecond, func() (string, error) {
		calls++
		return "", cause
	})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestRetry_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := retry(ctx, 5, time.Hour, func() (int, error) {
		calls++
		return 0, errors.New("down")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canceled after 1 attempts")
	assert.Equal(t, 1, calls)
}
