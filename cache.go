package landlord

import (
	"context"
	"time"
)

// Cache stores directory answers between lookups.
//
// Implementations must be safe for concurrent use. The client treats any
// error from a Get method as a cache miss and ignores errors from the Cache
// methods, so a failing backend only costs extra directory calls.
type Cache interface {
	// GetTenantIDLookup returns the tenant id cached for domain,
	// or an error (typically ErrCacheMiss) when there is none.
	GetTenantIDLookup(ctx context.Context, domain string) (string, error)

	// CacheTenantIDLookup stores the tenant id for domain. The mapping never expires.
	CacheTenantIDLookup(ctx context.Context, domain, tenantID string) error

	// GetTenantURLLookup returns the URL entry cached for tenantID,
	// or an error when there is none. Expired entries are still returned.
	GetTenantURLLookup(ctx context.Context, tenantID string) (TenantURL, error)

	// CacheTenantURLLookup stores url for tenantID with expiry in Unix seconds.
	CacheTenantURLLookup(ctx context.Context, tenantID, url string, expiry int64) error
}

// TenantURL is a cached tenant base URL.
type TenantURL struct {
	URL string `json:"url"`
	// Expiry is an absolute Unix timestamp in seconds.
	Expiry int64 `json:"expiry"`
}

// Expired reports whether the entry is stale at now (Unix seconds).
// An entry expiring exactly at now is stale.
func (u TenantURL) Expired(now int64) bool {
	return u.Expiry <= now
}

// ExpiresAt returns Expiry as a time.Time.
func (u TenantURL) ExpiresAt() time.Time {
	return time.Unix(u.Expiry, 0)
}

// BaseCache fails every operation with ErrNotImplemented.
// Embed it to write a cache that only supports some operations:
//
//	type readOnlyIDs struct {
//		landlord.BaseCache
//		ids map[string]string
//	}
//
//	func (c readOnlyIDs) GetTenantIDLookup(_ context.Context, domain string) (string, error) {
//		if id, ok := c.ids[domain]; ok {
//			return id, nil
//		}
//		return "", landlord.ErrCacheMiss
//	}
type BaseCache struct{}

func (BaseCache) GetTenantIDLookup(ctx context.Context, domain string) (string, error) {
	return "", ErrNotImplemented
}

func (BaseCache) CacheTenantIDLookup(ctx context.Context, domain, tenantID string) error {
	return ErrNotImplemented
}

func (BaseCache) GetTenantURLLookup(ctx context.Context, tenantID string) (TenantURL, error) {
	return TenantURL{}, ErrNotImplemented
}

func (BaseCache) CacheTenantURLLookup(ctx context.Context, tenantID, url string, expiry int64) error {
	return ErrNotImplemented
}
