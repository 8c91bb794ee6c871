package landlord

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces the keys written by RedisCache.
const DefaultRedisKeyPrefix = "landlord"

const (
	redisFieldURL    = "url"
	redisFieldExpiry = "expiry"
)

// RedisCache is a Cache shared by every process pointed at the same Redis.
//
// Tenant ids are stored as plain strings under "<prefix>:tenant-id:<domain>",
// tenant URLs as hashes with url and expiry fields under
// "<prefix>:tenant-url:<tenant id>". No Redis TTL is set: expired URL entries
// are kept so the client can fall back to them, and eviction is left to the
// server's maxmemory policy.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

var _ Cache = (*RedisCache)(nil)

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithKeyPrefix overrides DefaultRedisKeyPrefix. Empty prefixes are ignored.
func WithKeyPrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// NewRedisCache wraps an existing go-redis client. The caller owns the client.
func NewRedisCache(client redis.UniversalClient, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{client: client, prefix: DefaultRedisKeyPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) GetTenantIDLookup(ctx context.Context, domain string) (string, error) {
	id, err := c.client.Get(ctx, c.idKey(domain)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get tenant id: %w", err)
	}
	return id, nil
}

func (c *RedisCache) CacheTenantIDLookup(ctx context.Context, domain, tenantID string) error {
	if err := c.client.Set(ctx, c.idKey(domain), tenantID, 0).Err(); err != nil {
		return fmt.Errorf("redis set tenant id: %w", err)
	}
	return nil
}

func (c *RedisCache) GetTenantURLLookup(ctx context.Context, tenantID string) (TenantURL, error) {
	fields, err := c.client.HGetAll(ctx, c.urlKey(tenantID)).Result()
	if err != nil {
		return TenantURL{}, fmt.Errorf("redis get tenant url: %w", err)
	}
	if len(fields) == 0 {
		return TenantURL{}, ErrCacheMiss
	}

	url, ok := fields[redisFieldURL]
	if !ok || url == "" {
		return TenantURL{}, ErrCacheMiss
	}
	expiry, err := strconv.ParseInt(fields[redisFieldExpiry], 10, 64)
	if err != nil {
		return TenantURL{}, fmt.Errorf("redis get tenant url: malformed expiry: %w", err)
	}
	return TenantURL{URL: url, Expiry: expiry}, nil
}

func (c *RedisCache) CacheTenantURLLookup(ctx context.Context, tenantID, url string, expiry int64) error {
	err := c.client.HSet(ctx, c.urlKey(tenantID),
		redisFieldURL, url,
		redisFieldExpiry, strconv.FormatInt(expiry, 10),
	).Err()
	if err != nil {
		return fmt.Errorf("redis set tenant url: %w", err)
	}
	return nil
}

func (c *RedisCache) idKey(domain string) string {
	return c.prefix + ":tenant-id:" + domain
}

func (c *RedisCache) urlKey(tenantID string) string {
	return c.prefix + ":tenant-url:" + tenantID
}
