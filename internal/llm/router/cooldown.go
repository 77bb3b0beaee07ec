package router

import (
	"sync"
	"time"
)

// cooldownTracker remembers until when a rate-limited provider should not be
// dialed. Expiry re-admits the provider, a success clears it early.
type cooldownTracker struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time //swapped in tests
}

func newCooldownTracker() *cooldownTracker {
	return &cooldownTracker{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (c *cooldownTracker) set(provider string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires[provider] = c.now().Add(d)
}

func (c *cooldownTracker) clear(provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.expires, provider)
}

func (c *cooldownTracker) active(provider string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.expires[provider]
	if !ok {
		return false
	}
	if c.now().After(until) {
		delete(c.expires, provider)
		return false
	}
	return true
}
