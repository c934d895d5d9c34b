package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 1, rl.RetryAfter("a"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(1, time.Second)
	rl.now = func() time.Time { return now }
	rl.lastCleanup = now

	rl.Allow("a")
	now = now.Add(3 * time.Second)
	rl.Allow("b")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.buckets, "a")
	assert.Contains(t, rl.buckets, "b")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "198.51.100.4:5555"
	assert.Equal(t, "198.51.100.4", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	assert.Equal(t, "203.0.113.1", clientIP(r))
}

func TestRetryAfterRoundsUp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(1, 3*time.Second)
	rl.now = func() time.Time { return now }

	assert.Equal(t, 0, rl.RetryAfter("a"), "unknown client")
	rl.Allow("a")
	assert.Equal(t, 3, rl.RetryAfter("a"))

	now = now.Add(1500 * time.Millisecond)
	assert.Equal(t, 2, rl.RetryAfter("a"))

	now = now.Add(1499 * time.Millisecond)
	assert.Equal(t, 1, rl.RetryAfter("a"))

	now = now.Add(time.Millisecond)
	assert.Equal(t, 0, rl.RetryAfter("a"))
}
