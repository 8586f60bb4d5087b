package ratelimit

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// UnmatchedRoute is the rule key for requests no route pattern matches
const UnmatchedRoute = "*"

// Rule limits one route. Limit requests refill evenly over Window; Burst is
// the bucket capacity and defaults to Limit. A Limit of 0 means unlimited.
type Rule struct {
	Limit  int
	Window time.Duration
	Burst  int
}

// Unlimited reports whether the rule lets every request through
func (r Rule) Unlimited() bool {
	return r.Limit <= 0
}

func (r Rule) capacity() int {
	if r.Burst > 0 {
		return r.Burst
	}
	return r.Limit
}

// perSecond is the refill rate in tokens per second
func (r Rule) perSecond() float64 {
	window := r.Window
	if window <= 0 {
		window = time.Minute
	}
	return float64(r.Limit) / window.Seconds()
}

// Config holds rate limiting configuration. Rules are keyed by ServeMux
// route pattern, e.g. "POST /matches".
type Config struct {
	Enabled         bool
	Default         Rule
	Rules           map[string]Rule
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
}

// RuleFor returns the rule for a route pattern, or Default when none is set
func (c *Config) RuleFor(pattern string) Rule {
	if r, ok := c.Rules[pattern]; ok {
		return r
	}
	return c.Default
}

// DefaultRules returns the built-in per-route limits
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		// calls out to the job search API
		"POST /matches": {Limit: 30, Window: time.Hour, Burst: 5},

		// extraction may parse uploads or call the place recognizer
		"POST /profiles":        {Limit: 120, Window: time.Minute, Burst: 20},
		"DELETE /profiles/{id}": {Limit: 100, Window: time.Minute, Burst: 10},

		// probes and scrapes
		"GET /health":  {},
		"GET /metrics": {},
	}
}

// DefaultConfig returns an enabled configuration with the built-in rules
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Default:         Rule{Limit: 1000, Window: time.Minute},
		Rules:           DefaultRules(),
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
	}
}

// FromEnv builds a Config from the environment, read through lookup.
// RATE_LIMIT_ENABLED overrides enabled. RATE_LIMIT_RULES adds or replaces
// route rules as "POST /matches=10/1h,GET /profiles=60/1m:20".
func FromEnv(enabled bool, lookup func(string) (string, bool)) *Config {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if v := get("RATE_LIMIT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			enabled = b
		}
	}
	cfg := DefaultConfig()
	cfg.Enabled = enabled
	if !enabled {
		return cfg
	}

	if v := get("RATE_LIMIT_DEFAULT"); v != "" {
		if r, err := ParseRule(v); err == nil {
			cfg.Default = r
		} else {
			log.Printf("[ratelimit] ignoring RATE_LIMIT_DEFAULT: %v", err)
		}
	}
	if v := get("RATE_LIMIT_CLEANUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CleanupInterval = d
		}
	}
	for pattern, r := range parseRules(get("RATE_LIMIT_RULES")) {
		cfg.Rules[pattern] = r
	}
	cfg.Whitelist = parseIPList(get("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseIPList(get("RATE_LIMIT_BLACKLIST"))
	return cfg
}

// ParseRule parses "limit/window" with an optional ":burst", e.g. "30/1h:5"
func ParseRule(s string) (Rule, error) {
	limitWindow, burstStr, hasBurst := strings.Cut(strings.TrimSpace(s), ":")
	limitStr, windowStr, ok := strings.Cut(limitWindow, "/")
	if !ok {
		return Rule{}, fmt.Errorf("rule %q: want limit/window", s)
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return Rule{}, fmt.Errorf("rule %q: invalid limit", s)
	}
	window, err := time.ParseDuration(windowStr)
	if err != nil || window <= 0 {
		return Rule{}, fmt.Errorf("rule %q: invalid window", s)
	}
	r := Rule{Limit: limit, Window: window}
	if hasBurst {
		if r.Burst, err = strconv.Atoi(burstStr); err != nil || r.Burst < 0 {
			return Rule{}, fmt.Errorf("rule %q: invalid burst", s)
		}
	}
	return r, nil
}

// parseRules parses comma-separated "pattern=rule" entries, skipping bad ones
func parseRules(s string) map[string]Rule {
	rules := map[string]Rule{}
	for _, entry := range strings.Split(s, ",") {
		pattern, ruleStr, ok := strings.Cut(entry, "=")
		pattern = strings.TrimSpace(pattern)
		if !ok || pattern == "" {
			if strings.TrimSpace(entry) != "" {
				log.Printf("[ratelimit] ignoring rule %q", entry)
			}
			continue
		}
		r, err := ParseRule(ruleStr)
		if err != nil {
			log.Printf("[ratelimit] ignoring %s: %v", pattern, err)
			continue
		}
		rules[pattern] = r
	}
	return rules
}

// parseIPList parses a comma-separated list of client IDs into a set
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
