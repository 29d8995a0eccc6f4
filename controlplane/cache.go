package controlplane

import (
	"sync"
	"time"

	"github.com/aponysus/reprise/policy"
)

type cacheEntry struct {
	policy    policy.EffectivePolicy
	expiresAt time.Time
	found     bool // false marks a negative cache entry
}

// PolicyCache is a thread-safe cache for policies with TTL support.
type PolicyCache struct {
	mu      sync.RWMutex
	entries map[policy.TaskKey]cacheEntry
	nowFn   func() time.Time
}

// NewPolicyCache creates a new, empty PolicyCache.
func NewPolicyCache() *PolicyCache {
	return &PolicyCache{
		entries: make(map[policy.TaskKey]cacheEntry),
	}
}

// Get retrieves a policy from the cache.
//
// foundInCache is true when a valid (unexpired) entry exists, even a
// negative one; isNegativeCache distinguishes "cached as missing" from a
// real hit.
func (c *PolicyCache) Get(key policy.TaskKey) (pol policy.EffectivePolicy, foundInCache bool, isNegativeCache bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return policy.EffectivePolicy{}, false, false
	}

	if c.now().After(entry.expiresAt) {
		return policy.EffectivePolicy{}, false, false
	}

	return entry.policy, true, !entry.found
}

// Set adds or updates a policy in the cache.
func (c *PolicyCache) Set(key policy.TaskKey, pol policy.EffectivePolicy, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		policy:    pol,
		expiresAt: c.now().Add(ttl),
		found:     true,
	}
}

// SetMissing records a negative entry: the key is known to have no policy.
func (c *PolicyCache) SetMissing(key policy.TaskKey, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		expiresAt: c.now().Add(ttl),
		found:     false,
	}
}

// Invalidate removes the entry for key, if any.
func (c *PolicyCache) Invalidate(key policy.TaskKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// SetClock overrides the cache clock, primarily for tests.
func (c *PolicyCache) SetClock(f func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowFn = f
}

func (c *PolicyCache) now() time.Time {
	if c.nowFn != nil {
		return c.nowFn()
	}
	return time.Now()
}
