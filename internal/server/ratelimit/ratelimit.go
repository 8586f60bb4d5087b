// Package ratelimit provides per-client, per-route request limiting
// backed by golang.org/x/time/rate token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucket wraps a rate.Limiter with what the response headers and idle
// cleanup need
type bucket struct {
	limiter  *rate.Limiter
	capacity int

	mu       sync.Mutex
	lastSeen time.Time
}

func newBucket(r Rule, now time.Time) *bucket {
	return &bucket{
		limiter:  rate.NewLimiter(rate.Limit(r.perSecond()), r.capacity()),
		capacity: r.capacity(),
		lastSeen: now,
	}
}

func (b *bucket) take(now time.Time) bool {
	b.mu.Lock()
	b.lastSeen = now
	b.mu.Unlock()
	return b.limiter.AllowN(now, 1)
}

// status returns the whole tokens left and when the bucket will be full
func (b *bucket) status(now time.Time) (remaining int, full time.Time) {
	tokens := b.limiter.TokensAt(now)
	remaining = max(0, int(tokens))

	missing := float64(b.capacity) - tokens
	if missing <= 0 || b.limiter.Limit() <= 0 {
		return remaining, now
	}
	return remaining, now.Add(time.Duration(missing / float64(b.limiter.Limit()) * float64(time.Second)))
}

func (b *bucket) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen.Before(cutoff)
}

// Info describes the limit applied to one request. Limit is 0 when the
// request was not subject to a limit.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter keeps one bucket per client and route
type Limiter struct {
	config *Config
	now    func() time.Time

	mu      sync.RWMutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a Limiter. A nil config means DefaultConfig.
// The idle-bucket sweeper runs until Stop.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = time.Hour
	}
	l := &Limiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.sweep(config.CleanupInterval)
	}
	return l
}

// Allow takes a token for clientID on the route pattern. An empty pattern
// counts against UnmatchedRoute.
func (l *Limiter) Allow(clientID, pattern string) Info {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return Info{Allowed: false}
	}
	if pattern == "" {
		pattern = UnmatchedRoute
	}
	rule := l.config.RuleFor(pattern)
	if rule.Unlimited() {
		return Info{Allowed: true}
	}

	now := l.now()
	b := l.bucketFor(clientID+" "+pattern, rule, now)
	allowed := b.take(now)
	remaining, reset := b.status(now)

	info := Info{Allowed: allowed, Limit: rule.Limit, Remaining: remaining, ResetTime: reset}
	if !allowed {
		// one token is enough to retry
		info.RetryAfter = max(time.Second, time.Duration(float64(time.Second)/rule.perSecond()))
	}
	return info
}

func (l *Limiter) bucketFor(key string, rule Rule, now time.Time) *bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	b = newBucket(rule, now)
	l.buckets[key] = b
	return b
}

func (l *Limiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.dropIdle(l.now().Add(-l.config.IdleTTL))
		case <-l.stop:
			return
		}
	}
}

// dropIdle removes buckets last used before cutoff
func (l *Limiter) dropIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.idleSince(cutoff) {
			delete(l.buckets, key)
		}
	}
}

func (l *Limiter) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

// Stop ends the sweeper. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
