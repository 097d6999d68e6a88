// Package ratelimit provides per-client rate limiting using token buckets.
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// TokenBucket allows a number of requests per window, with tokens refilling
// at a steady rate.
type TokenBucket struct {
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// allow consumes a token if one is available.
func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// status returns the remaining tokens and the time at which the bucket is
// full again, without consuming a token.
func (tb *TokenBucket) status() (remaining int, resetTime time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	remaining = int(tb.tokens)
	resetTime = time.Now()
	if tb.tokens < float64(tb.capacity) {
		secondsUntilFull := (float64(tb.capacity) - tb.tokens) / tb.refillRate
		resetTime = resetTime.Add(time.Duration(secondsUntilFull * float64(time.Second)))
	}
	return remaining, resetTime
}

// refill must be called with the mutex held.
func (tb *TokenBucket) refill() {
	now := time.Now()
	tb.tokens = min(float64(tb.capacity), tb.tokens+now.Sub(tb.lastRefill).Seconds()*tb.refillRate)
	tb.lastRefill = now
}

// Info describes the rate limit status attached to a response.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter manages buckets per client and endpoint.
type Limiter struct {
	config     *Config
	buckets    map[string]*TokenBucket
	lastAccess map[string]time.Time
	mu         sync.RWMutex

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
}

// NewLimiter creates a limiter from the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Limiter{
		config:     config,
		buckets:    make(map[string]*TokenBucket),
		lastAccess: make(map[string]time.Time),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		l.cleanupTicker = time.NewTicker(config.CleanupInterval)
		l.cleanupStop = make(chan struct{})
		go l.cleanupLoop()
	}

	return l
}

// Allow checks whether a request from clientID against the endpoint is
// permitted, returning status information either way.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}

	rule := matchEndpoint(path, method, l.config.Endpoints)
	if rule == nil {
		rule = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}
	// Unlimited endpoints (health, metrics).
	if rule.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	key := clientID + ":" + rule.Path + ":" + method
	bucket := l.bucket(key, rule)

	l.mu.Lock()
	l.lastAccess[key] = time.Now()
	l.mu.Unlock()

	allowed := bucket.allow()
	remaining, resetTime := bucket.status()

	var retryAfter time.Duration
	if !allowed {
		if retryAfter = time.Until(resetTime); retryAfter < 0 {
			retryAfter = 0
		}
	}

	return allowed, Info{
		Allowed:    allowed,
		Limit:      rule.Limit,
		Remaining:  remaining,
		ResetTime:  resetTime,
		RetryAfter: retryAfter,
	}
}

// matchEndpoint finds the rule for a path and method: exact match first,
// then prefix rules (paths ending in "/").
func matchEndpoint(path, method string, rules []EndpointConfig) *EndpointConfig {
	if (path == "/health" || path == "/metrics") && method == "GET" {
		return &EndpointConfig{}
	}

	for i := range rules {
		if rules[i].Path == path && rules[i].Method == method {
			return &rules[i]
		}
	}
	for i := range rules {
		if rules[i].Method == method && strings.HasSuffix(rules[i].Path, "/") &&
			strings.HasPrefix(path, rules[i].Path) {
			return &rules[i]
		}
	}
	return nil
}

func (l *Limiter) bucket(key string, rule *EndpointConfig) *TokenBucket {
	l.mu.RLock()
	bucket, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return bucket
	}

	capacity := rule.Burst
	if capacity <= 0 {
		capacity = rule.Limit
	}
	bucket = newTokenBucket(capacity, float64(rule.Limit)/rule.Window.Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.buckets[key]; ok {
		return existing
	}
	l.buckets[key] = bucket
	return bucket
}

func (l *Limiter) cleanupLoop() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.removeStale()
		case <-l.cleanupStop:
			return
		}
	}
}

// removeStale drops buckets idle for over an hour so the maps stay bounded.
func (l *Limiter) removeStale() {
	cutoff := time.Now().Add(-time.Hour)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastAccess, key)
		}
	}
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	if l.cleanupTicker != nil {
		l.cleanupTicker.Stop()
	}
	if l.cleanupStop != nil {
		close(l.cleanupStop)
	}
}
