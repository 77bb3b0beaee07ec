package middleware

import (
	"testing"

	"golang.org/x/time/rate"
)

func TestIPRateLimiter_PerIPIsolation(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 2)

	first := limiter.GetLimiter("10.0.0.1")
	if limiter.GetLimiter("10.0.0.1") != first {
		t.Error("Same IP must get the same limiter back")
	}
	if limiter.GetLimiter("10.0.0.2") == first {
		t.Error("Different IPs must not share a limiter")
	}
}

func TestIPRateLimiter_BurstThenDeny(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 2)
	lim := limiter.GetLimiter("10.0.0.3")

	if !lim.Allow() || !lim.Allow() {
		t.Fatal("Burst allowance should cover the first 2 requests")
	}
	if lim.Allow() {
		t.Error("Third immediate request should be rejected")
	}

	// another IP is unaffected
	if !limiter.GetLimiter("10.0.0.4").Allow() {
		t.Error("Fresh IP should not be throttled")
	}
}
