package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frozen pins the limiter's clock so token counts are exact.
func frozen(l *Limiter, at time.Time) {
	l.now = func() time.Time { return at }
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()
	frozen(limiter, time.Unix(1000, 0))

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.False(t, allowed, "11th request should be denied")
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 6*time.Second, info.RetryAfter, "one token refills every 6s at 10/min")
	assert.Equal(t, time.Unix(1060, 0), info.ResetTime)
}

func TestLimiter_Refill(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: 10 * time.Second})
	defer limiter.Stop()
	start := time.Unix(1000, 0)
	frozen(limiter, start)

	for i := 0; i < 10; i++ {
		limiter.Allow("c", "/test", "GET")
	}
	allowed, _ := limiter.Allow("c", "/test", "GET")
	require.False(t, allowed)

	frozen(limiter, start.Add(time.Second))
	allowed, _ = limiter.Allow("c", "/test", "GET")
	assert.True(t, allowed, "one token refilled after a second")
	allowed, _ = limiter.Allow("c", "/test", "GET")
	assert.False(t, allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()
	frozen(limiter, time.Unix(1000, 0))

	allowed, _ := limiter.Allow("a", "/test", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("a", "/test", "GET")
	assert.False(t, allowed)
	allowed, _ = limiter.Allow("b", "/test", "GET")
	assert.True(t, allowed)
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}

	allowed, _ := limiter.Allow("192.168.1.1", "/test", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(NewConfig(false, 1, 1))
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/pipeline/run", "POST")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}
}

func TestLimiter_PipelineRunLimit(t *testing.T) {
	limiter := NewLimiter(NewConfig(true, 60, 2))
	defer limiter.Stop()
	frozen(limiter, time.Unix(1000, 0))

	for i := 0; i < 2; i++ {
		allowed, info := limiter.Allow("c", "/pipeline/run", "POST")
		require.True(t, allowed, "burst request %d", i+1)
		assert.Equal(t, 60, info.Limit)
	}
	allowed, info := limiter.Allow("c", "/pipeline/run", "POST")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, info.RetryAfter)

	allowed, info = limiter.Allow("c", "/runs/abc", "GET")
	assert.True(t, allowed, "other endpoints use the default limit")
	assert.Equal(t, 600, info.Limit)

	allowed, _ = limiter.Allow("c", "/health", "GET")
	assert.True(t, allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute})
	defer limiter.Stop()
	frozen(limiter, time.Unix(1000, 0))

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/test", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowedCount)
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()
	start := time.Unix(1000, 0)

	frozen(limiter, start)
	limiter.Allow("old", "/test", "GET")
	frozen(limiter, start.Add(2*time.Hour))
	limiter.Allow("new", "/test", "GET")
	require.Equal(t, 2, limiter.size())

	limiter.cleanupBuckets(start.Add(time.Hour))
	assert.Equal(t, 1, limiter.size())
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/pipeline/run", Method: "POST", Limit: 5},
		{Path: "/runs/", Method: "GET", Limit: 7},
	}

	tests := []struct {
		name      string
		path      string
		method    string
		wantLimit int
		wantNil   bool
	}{
		{"exact", "/pipeline/run", "POST", 5, false},
		{"wrong method", "/pipeline/run", "GET", 0, true},
		{"prefix", "/runs/123", "GET", 7, false},
		{"health unlimited", "/health", "GET", 0, false},
		{"metrics unlimited", "/metrics", "GET", 0, false},
		{"unknown", "/other", "GET", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}
