package landlord_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/landlord"
)

func newRedisCache(t *testing.T, opts ...landlord.RedisCacheOption) (*landlord.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return landlord.NewRedisCache(rdb, opts...), mr
}

func TestRedisCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("stores tenant ids", func(t *testing.T) {
		t.Parallel()

		c, mr := newRedisCache(t)
		require.NoError(t, c.CacheTenantIDLookup(ctx, "acme.example.com", "tenant-1"))

		id, err := c.GetTenantIDLookup(ctx, "acme.example.com")
		require.NoError(t, err)
		assert.Equal(t, "tenant-1", id)

		raw, err := mr.Get("landlord:tenant-id:acme.example.com")
		require.NoError(t, err)
		assert.Equal(t, "tenant-1", raw)
		assert.Zero(t, mr.TTL("landlord:tenant-id:acme.example.com"))
	})

	t.Run("stores tenant urls", func(t *testing.T) {
		t.Parallel()

		c, mr := newRedisCache(t)
		require.NoError(t, c.CacheTenantURLLookup(ctx, "tenant-1", "https://acme.example.com/", 1700003600))

		u, err := c.GetTenantURLLookup(ctx, "tenant-1")
		require.NoError(t, err)
		assert.Equal(t, landlord.TenantURL{URL: "https://acme.example.com/", Expiry: 1700003600}, u)

		assert.Equal(t, "https://acme.example.com/", mr.HGet("landlord:tenant-url:tenant-1", "url"))
		assert.Equal(t, "1700003600", mr.HGet("landlord:tenant-url:tenant-1", "expiry"))
	})

	t.Run("misses", func(t *testing.T) {
		t.Parallel()

		c, _ := newRedisCache(t)

		_, err := c.GetTenantIDLookup(ctx, "acme.example.com")
		assert.ErrorIs(t, err, landlord.ErrCacheMiss)
		_, err = c.GetTenantURLLookup(ctx, "tenant-1")
		assert.ErrorIs(t, err, landlord.ErrCacheMiss)
	})

	t.Run("custom prefix", func(t *testing.T) {
		t.Parallel()

		c, mr := newRedisCache(t, landlord.WithKeyPrefix("tenants"))
		require.NoError(t, c.CacheTenantIDLookup(ctx, "acme.example.com", "tenant-1"))
		assert.True(t, mr.Exists("tenants:tenant-id:acme.example.com"))
	})

	t.Run("malformed expiry is an error", func(t *testing.T) {
		t.Parallel()

		c, mr := newRedisCache(t)
		mr.HSet("landlord:tenant-url:tenant-1", "url", "https://acme.example.com/", "expiry", "soon")

		_, err := c.GetTenantURLLookup(ctx, "tenant-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, landlord.ErrCacheMiss)
	})

	t.Run("server errors are returned", func(t *testing.T) {
		t.Parallel()

		c, mr := newRedisCache(t)
		mr.Close()

		_, err := c.GetTenantIDLookup(ctx, "acme.example.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, landlord.ErrCacheMiss)
		assert.Error(t, c.CacheTenantURLLookup(ctx, "tenant-1", "https://acme.example.com/", 1))
	})

	t.Run("backs a client", func(t *testing.T) {
		t.Parallel()

		d := newFakeDirectory(t)
		d.addTenant("acme.example.com", "tenant-1", tenantRecord{maxAge: 300})
		c, _ := newRedisCache(t)
		clock := newTestClock()
		client := newTestClient(t, d, landlord.WithCache(c), landlord.WithClock(clock.Now))

		id, err := client.LookupTenantID(ctx, "acme.example.com")
		require.NoError(t, err)
		u, err := client.LookupTenantURL(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "https://acme.example.com/", u)

		other := newTestClient(t, d, landlord.WithCache(c), landlord.WithClock(clock.Now))
		_, err = other.LookupTenantID(ctx, "acme.example.com")
		require.NoError(t, err)
		_, err = other.LookupTenantURL(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, int32(1), d.searchCalls.Load())
		assert.Equal(t, int32(1), d.fetchCalls.Load())
	})
}
