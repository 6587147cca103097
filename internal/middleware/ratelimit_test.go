package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	limiter := NewRateLimiter(1, 3)
	defer limiter.Stop()

	assert.True(t, limiter.Allow("client"))
	assert.True(t, limiter.Allow("client"))
	assert.True(t, limiter.Allow("client"))
	assert.False(t, limiter.Allow("client"))

	// A different key has its own bucket.
	assert.True(t, limiter.Allow("other"))
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	limiter.Stop()
	limiter.Stop()

	// The limiter itself keeps working after Stop; only cleanup ends.
	assert.True(t, limiter.Allow("client"))
}

func TestLimitsStopStopsAllLimiters(t *testing.T) {
	limits := NewLimits()
	limits.Stop()
	limits.Stop()

	assert.True(t, limits.Webhook.Allow("client"))
}
