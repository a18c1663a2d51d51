package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testLimiter(cfg *Config) (*Limiter, *fakeClock) {
	cfg.CleanupInterval = 0
	clock := newFakeClock()
	limiter := NewLimiter(cfg)
	limiter.now = clock.Now
	return limiter, clock
}

func TestTokenBucket_Take(t *testing.T) {
	now := newFakeClock().Now()
	bucket := newTokenBucket(10, 1.0, now)

	for i := 0; i < 10; i++ {
		allowed, remaining, _ := bucket.take(now)
		assert.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 9-i, remaining)
	}

	allowed, remaining, reset := bucket.take(now)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, now.Add(10*time.Second), reset)
}

func TestTokenBucket_Refill(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(10, 1.0, clock.Now())
	for i := 0; i < 10; i++ {
		bucket.take(clock.Now())
	}

	clock.Advance(time.Second)
	allowed, _, _ := bucket.take(clock.Now())
	assert.True(t, allowed)

	allowed, _, _ = bucket.take(clock.Now())
	assert.False(t, allowed)

	// Refill never exceeds capacity
	clock.Advance(time.Hour)
	_, remaining, reset := bucket.take(clock.Now())
	assert.Equal(t, 9, remaining)
	assert.Equal(t, clock.Now().Add(time.Second), reset)
}

func TestLimiter_DefaultLimit(t *testing.T) {
	limiter, _ := testLimiter(&Config{Enabled: true, DefaultLimit: 5, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow("client1", "/session", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 5, info.Limit)
	}

	allowed, info := limiter.Allow("client1", "/session", "GET")
	assert.False(t, allowed)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
	assert.Equal(t, 12*time.Second, info.RetryAfter.Round(time.Second))

	// Other clients and endpoints have their own buckets
	allowed, _ = limiter.Allow("client2", "/session", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("client1", "/analysis", "GET")
	assert.True(t, allowed)
}

func TestLimiter_ModelEndpoints(t *testing.T) {
	limiter, clock := testLimiter(DefaultConfig())
	defer limiter.Stop()

	for _, path := range []string{"/analysis", "/analysis/stream", "/generation"} {
		t.Run(path, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				allowed, info := limiter.Allow("10.0.0.1", path, "POST")
				require.True(t, allowed, "burst request %d", i+1)
				assert.Equal(t, 20, info.Limit)
			}
			allowed, info := limiter.Allow("10.0.0.1", path, "POST")
			assert.False(t, allowed)
			assert.Equal(t, 3*time.Minute, info.RetryAfter.Round(time.Second))
		})
	}

	// 20 per hour refills one token every three minutes
	clock.Advance(3 * time.Minute)
	allowed, _ := limiter.Allow("10.0.0.1", "/generation", "POST")
	assert.True(t, allowed)
}

func TestLimiter_Whitelist(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Whitelist = map[string]bool{"127.0.0.1": true}
	limiter, _ := testLimiter(cfg)
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/analysis", "POST")
		require.True(t, allowed)
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Blacklist = map[string]bool{"192.168.1.100": true}
	limiter, _ := testLimiter(cfg)
	defer limiter.Stop()

	allowed, _ := limiter.Allow("192.168.1.100", "/health", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, _ := limiter.Allow("client1", "/analysis", "POST")
		require.True(t, allowed)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter, _ := testLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, _ := limiter.Allow("client1", "/health", "GET")
		require.True(t, allowed)
		allowed, _ = limiter.Allow("client1", "/analysis", "OPTIONS")
		require.True(t, allowed)
	}
}

func TestLimiter_PrefixBucketShared(t *testing.T) {
	cfg := &Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/generation/download/", Method: "GET", Limit: 2, Window: time.Minute},
		},
	}
	limiter, _ := testLimiter(cfg)
	defer limiter.Stop()

	allowed, _ := limiter.Allow("c", "/generation/download/pdf", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("c", "/generation/download/docx", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("c", "/generation/download/pdf", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := testLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("client1", "/session", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowedCount)
}

func TestLimiter_Cleanup(t *testing.T) {
	limiter, clock := testLimiter(DefaultConfig())
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("client%d", i), "/session", "GET")
	}
	clock.Advance(30 * time.Minute)
	limiter.Allow("client0", "/session", "GET")
	clock.Advance(45 * time.Minute)

	assert.Equal(t, 9, limiter.cleanupBuckets(time.Hour))
	assert.Len(t, limiter.buckets, 1)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()
	limiter.Stop()

	allowed, info := limiter.Allow("client1", "/session", "GET")
	assert.True(t, allowed)
	assert.Equal(t, defaultLimit, info.Limit)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path, method string
		wantPath     string
		wantNil      bool
	}{
		{"/analysis", "POST", "/analysis", false},
		{"/analysis/stream", "POST", "/analysis/stream", false},
		{"/resume", "POST", "/resume", false},
		{"/analysis", "GET", "", true},
		{"/session", "GET", "", true},
		{"/health", "GET", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_WHITELIST", "1.1.1.1, 2.2.2.2")
	t.Setenv("RATE_LIMIT_MODEL_LIMIT", "5")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.True(t, cfg.Whitelist["2.2.2.2"])
	for _, ec := range cfg.EndpointConfigs {
		if ec.Window == time.Hour {
			assert.Equal(t, 5, ec.Limit, ec.Path)
		}
	}

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
