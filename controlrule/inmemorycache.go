package controlrule

import (
	"sync"
	"time"
)

// InMemoryRuleCache is a simple in-memory implementation of RuleCache.
// Thread-safe for concurrent access.
type InMemoryRuleCache struct {
	rules    []*StoredRule
	cachedAt time.Time
	config   CacheConfig
	mu       sync.RWMutex
	valid    bool
}

// NewInMemoryRuleCache creates a new in-memory rule cache.
func NewInMemoryRuleCache(config CacheConfig) *InMemoryRuleCache {
	return &InMemoryRuleCache{config: config}
}

// Get retrieves cached rules, or nil if the cache is invalid or
// expired.
func (c *InMemoryRuleCache) Get() []*StoredRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid {
		return nil
	}

	if c.config.TTL > 0 && time.Since(c.cachedAt) > c.config.TTL {
		return nil
	}

	// Return a copy to prevent external modification.
	rulesCopy := make([]*StoredRule, len(c.rules))
	copy(rulesCopy, c.rules)
	return rulesCopy
}

// Set stores rules in the cache.
func (c *InMemoryRuleCache) Set(rules []*StoredRule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rules = make([]*StoredRule, len(rules))
	copy(c.rules, rules)
	c.cachedAt = time.Now()
	c.valid = true
}

// Invalidate clears the cache.
func (c *InMemoryRuleCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.rules = nil
}

// IsValid returns true if the cache contains fresh data.
func (c *InMemoryRuleCache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid {
		return false
	}
	if c.config.TTL > 0 {
		return time.Since(c.cachedAt) <= c.config.TTL
	}
	return true
}
