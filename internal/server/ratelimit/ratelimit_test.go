package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimiter(cfg *Config) *Limiter {
	if cfg != nil {
		// Tests never need the cleanup goroutine.
		cfg.CleanupInterval = 0
	}
	return NewLimiter(cfg)
}

func TestTokenBucket_ConsumesAndRefills(t *testing.T) {
	bucket := newTokenBucket(2, 100) // fast refill so the test stays quick

	assert.True(t, bucket.allow())
	assert.True(t, bucket.allow())
	assert.False(t, bucket.allow())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, bucket.allow(), "tokens should refill over time")
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := testLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, _ := limiter.Allow("client", "/api/grade", "POST")
		require.True(t, allowed)
	}
}

func TestLimiter_EndpointBurst(t *testing.T) {
	cfg := &Config{
		Enabled:       true,
		DefaultLimit:  200,
		DefaultWindow: time.Hour,
		Endpoints: []EndpointConfig{
			{Path: "/api/grade", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		},
	}
	limiter := testLimiter(cfg)
	defer limiter.Stop()

	allowed, info := limiter.Allow("client", "/api/grade", "POST")
	assert.True(t, allowed)
	assert.Equal(t, 10, info.Limit)

	allowed, _ = limiter.Allow("client", "/api/grade", "POST")
	assert.True(t, allowed)

	allowed, info = limiter.Allow("client", "/api/grade", "POST")
	assert.False(t, allowed, "third request should exceed the burst")
	assert.Greater(t, info.RetryAfter, time.Duration(0))
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	cfg := &Config{
		Enabled:       true,
		DefaultLimit:  200,
		DefaultWindow: time.Hour,
		Endpoints: []EndpointConfig{
			{Path: "/api/grade", Method: "POST", Limit: 10, Window: time.Hour, Burst: 1},
		},
	}
	limiter := testLimiter(cfg)
	defer limiter.Stop()

	allowed, _ := limiter.Allow("alice", "/api/grade", "POST")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("alice", "/api/grade", "POST")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow("bob", "/api/grade", "POST")
	assert.True(t, allowed, "a second client has its own bucket")
}

func TestLimiter_DefaultRuleForUnlistedEndpoint(t *testing.T) {
	cfg := &Config{
		Enabled:       true,
		DefaultLimit:  3,
		DefaultWindow: time.Hour,
	}
	limiter := testLimiter(cfg)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow("client", "/api/other", "GET")
		require.True(t, allowed, "request %d", i+1)
	}
	allowed, info := limiter.Allow("client", "/api/other", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 3, info.Limit)
}

func TestLimiter_HealthAndMetricsUnlimited(t *testing.T) {
	limiter := testLimiter(DefaultConfig())
	defer limiter.Stop()

	for i := 0; i < 500; i++ {
		allowed, _ := limiter.Allow("client", "/health", "GET")
		require.True(t, allowed)
		allowed, _ = limiter.Allow("client", "/metrics", "GET")
		require.True(t, allowed)
	}
}

func TestMatchEndpoint_PrefixRule(t *testing.T) {
	rules := []EndpointConfig{
		{Path: "/api/admin/", Method: "GET", Limit: 5, Window: time.Hour},
		{Path: "/api/grade", Method: "POST", Limit: 10, Window: time.Hour},
	}

	assert.Equal(t, &rules[1], matchEndpoint("/api/grade", "POST", rules))
	assert.Equal(t, &rules[0], matchEndpoint("/api/admin/users", "GET", rules))
	assert.Nil(t, matchEndpoint("/api/grade", "GET", rules))
	assert.Nil(t, matchEndpoint("/api/unknown", "POST", rules))
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30m")

	cfg := LoadConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Minute, cfg.DefaultWindow)
}

func TestLoadConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg := LoadConfig()

	assert.False(t, cfg.Enabled)
	assert.Empty(t, cfg.Endpoints)
}

func TestRemoveStale(t *testing.T) {
	limiter := testLimiter(DefaultConfig())
	defer limiter.Stop()

	limiter.Allow("client", "/api/grade", "POST")
	limiter.mu.Lock()
	for key := range limiter.lastAccess {
		limiter.lastAccess[key] = time.Now().Add(-2 * time.Hour)
	}
	limiter.mu.Unlock()

	limiter.removeStale()

	limiter.mu.RLock()
	defer limiter.mu.RUnlock()
	assert.Empty(t, limiter.buckets)
	assert.Empty(t, limiter.lastAccess)
}
