package landlord

import (
	"context"

	"github.com/dmitrymomot/landlord/pkg/cache"
)

// DefaultCacheCapacity is the number of entries an LRUCache keeps per lookup kind.
const DefaultCacheCapacity = 2000

// LRUCache is the default in-memory Cache. Domain and tenant-id entries live
// in two separate LRUs so one kind of lookup cannot push the other out.
type LRUCache struct {
	ids  *cache.LRUCache[string, string]
	urls *cache.LRUCache[string, TenantURL]
}

var _ Cache = (*LRUCache)(nil)

// NewLRUCache creates an LRUCache holding up to capacity entries per lookup kind.
// A non-positive capacity selects DefaultCacheCapacity.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &LRUCache{
		ids:  cache.NewLRUCache[string, string](capacity),
		urls: cache.NewLRUCache[string, TenantURL](capacity),
	}
}

func (c *LRUCache) GetTenantIDLookup(_ context.Context, domain string) (string, error) {
	if id, ok := c.ids.Get(domain); ok {
		return id, nil
	}
	return "", ErrCacheMiss
}

func (c *LRUCache) CacheTenantIDLookup(_ context.Context, domain, tenantID string) error {
	c.ids.Put(domain, tenantID)
	return nil
}

func (c *LRUCache) GetTenantURLLookup(_ context.Context, tenantID string) (TenantURL, error) {
	if u, ok := c.urls.Get(tenantID); ok {
		return u, nil
	}
	return TenantURL{}, ErrCacheMiss
}

func (c *LRUCache) CacheTenantURLLookup(_ context.Context, tenantID, url string, expiry int64) error {
	c.urls.Put(tenantID, TenantURL{URL: url, Expiry: expiry})
	return nil
}

// Len returns the number of cached domains and tenant URLs.
func (c *LRUCache) Len() (ids, urls int) {
	return c.ids.Len(), c.urls.Len()
}

// Stats returns counters for the domain and tenant-id LRUs.
func (c *LRUCache) Stats() (ids, urls cache.Stats) {
	return c.ids.Stats(), c.urls.Stats()
}
