package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *fakeClock) {
	t.Helper()
	cfg.CleanupInterval = 0
	clock := &fakeClock{t: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l, clock
}

func testConfig(rules map[string]Rule) *Config {
	cfg := DefaultConfig()
	cfg.Default = Rule{Limit: 2, Window: time.Minute}
	cfg.Rules = rules
	return cfg
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	l, clock := newTestLimiter(t, testConfig(map[string]Rule{
		"POST /matches": {Limit: 60, Window: time.Minute, Burst: 3},
	}))

	for i := 0; i < 3; i++ {
		info := l.Allow("10.0.0.1", "POST /matches")
		require.True(t, info.Allowed, "request %d", i+1)
		assert.Equal(t, 60, info.Limit)
		assert.Equal(t, 2-i, info.Remaining)
	}

	denied := l.Allow("10.0.0.1", "POST /matches")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.Equal(t, time.Second, denied.RetryAfter)

	clock.Advance(time.Second)
	assert.True(t, l.Allow("10.0.0.1", "POST /matches").Allowed)
	assert.False(t, l.Allow("10.0.0.1", "POST /matches").Allowed)
}

func TestLimiter_ResetTime(t *testing.T) {
	l, clock := newTestLimiter(t, testConfig(map[string]Rule{
		"POST /matches": {Limit: 30, Window: time.Hour, Burst: 5},
	}))

	info := l.Allow("c", "POST /matches")
	require.True(t, info.Allowed)
	assert.Equal(t, 4, info.Remaining)
	// one token short at 30 per hour refills in two minutes
	assert.WithinDuration(t, clock.Now().Add(2*time.Minute), info.ResetTime, time.Millisecond)

	for i := 0; i < 4; i++ {
		l.Allow("c", "POST /matches")
	}
	denied := l.Allow("c", "POST /matches")
	assert.False(t, denied.Allowed)
	assert.InDelta(t, float64(2*time.Minute), float64(denied.RetryAfter), float64(time.Millisecond))
}

func TestLimiter_SeparateBuckets(t *testing.T) {
	l, _ := newTestLimiter(t, testConfig(map[string]Rule{
		"POST /profiles": {Limit: 1, Window: time.Minute},
	}))

	assert.True(t, l.Allow("a", "POST /profiles").Allowed)
	assert.False(t, l.Allow("a", "POST /profiles").Allowed)

	// another client is unaffected
	assert.True(t, l.Allow("b", "POST /profiles").Allowed)

	// another route for the same client uses the default rule
	info := l.Allow("a", "GET /profiles/{id}")
	assert.True(t, info.Allowed)
	assert.Equal(t, 2, info.Limit)
}

func TestLimiter_UnmatchedRoute(t *testing.T) {
	l, _ := newTestLimiter(t, testConfig(map[string]Rule{
		UnmatchedRoute: {Limit: 1, Window: time.Minute},
	}))

	assert.True(t, l.Allow("a", "").Allowed)
	assert.False(t, l.Allow("a", "").Allowed)
}

func TestLimiter_Unlimited(t *testing.T) {
	l, _ := newTestLimiter(t, testConfig(map[string]Rule{"GET /health": {}}))

	for i := 0; i < 100; i++ {
		info := l.Allow("a", "GET /health")
		require.True(t, info.Allowed)
		assert.Zero(t, info.Limit)
	}
	assert.Zero(t, l.size())
}

func TestLimiter_Lists(t *testing.T) {
	cfg := testConfig(map[string]Rule{"POST /matches": {Limit: 1, Window: time.Hour}})
	cfg.Whitelist = map[string]bool{"trusted": true}
	cfg.Blacklist = map[string]bool{"banned": true}
	l, _ := newTestLimiter(t, cfg)

	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("trusted", "POST /matches").Allowed)
	}
	assert.False(t, l.Allow("banned", "GET /health").Allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	cfg := testConfig(map[string]Rule{"POST /matches": {Limit: 1, Window: time.Hour}})
	cfg.Enabled = false
	cfg.Blacklist = map[string]bool{"banned": true}
	l, _ := newTestLimiter(t, cfg)

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("banned", "POST /matches").Allowed)
	}
}

func TestLimiter_DropIdle(t *testing.T) {
	l, clock := newTestLimiter(t, testConfig(nil))

	l.Allow("old", "POST /profiles")
	clock.Advance(30 * time.Minute)
	l.Allow("new", "POST /profiles")
	require.Equal(t, 2, l.size())

	l.dropIdle(clock.Now().Add(-10 * time.Minute))
	assert.Equal(t, 1, l.size())
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(t, testConfig(map[string]Rule{
		"POST /profiles": {Limit: 50, Window: time.Hour},
	}))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("a", "POST /profiles").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, CleanupInterval: time.Millisecond})
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	l := NewLimiter(nil)
	defer l.Stop()
	assert.True(t, l.config.Enabled)
	assert.Equal(t, DefaultRules(), l.config.Rules)
}
