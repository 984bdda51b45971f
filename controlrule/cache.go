package controlrule

import "time"

// RuleCache caches a project's stored rule list so repeated reads skip
// the database. Implementations can be swapped for Redis or similar.
type RuleCache interface {
	// Get retrieves cached rules, returns nil on cache miss or expiry.
	Get() []*StoredRule

	// Set stores rules in the cache.
	Set(rules []*StoredRule)

	// Invalidate clears the cache, forcing a refresh on next Get.
	Invalidate()

	// IsValid returns true if the cache holds fresh data.
	IsValid() bool
}

// CacheConfig holds configuration for cache behavior.
type CacheConfig struct {
	// TTL is the time-to-live for cached entries.
	// Zero means no expiration (manual invalidation only).
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults for rule caching: no
// TTL, invalidate on mutations only.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 0}
}
