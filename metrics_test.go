package landlord_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/landlord"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	t.Run("records cache results and upstream calls", func(t *testing.T) {
		t.Parallel()

		reg := prometheus.NewRegistry()
		m, err := landlord.NewMetrics(reg)
		require.NoError(t, err)

		d := newFakeDirectory(t)
		d.addTenant("acme.example.com", "tenant-1", tenantRecord{maxAge: 60})
		client := newTestClient(t, d, landlord.WithMetrics(m))

		for range 2 {
			_, err := client.LookupTenantID(context.Background(), "acme.example.com")
			require.NoError(t, err)
		}
		_, err = client.LookupTenantID(context.Background(), "unknown.example.com")
		require.ErrorIs(t, err, landlord.ErrTenantNotFound)

		expected := `
# HELP landlord_client_cache_lookups_total Cache reads by lookup kind and result (hit, miss, stale).
# TYPE landlord_client_cache_lookups_total counter
landlord_client_cache_lookups_total{lookup="tenant_id",result="hit"} 1
landlord_client_cache_lookups_total{lookup="tenant_id",result="miss"} 2
# HELP landlord_client_upstream_requests_total Directory requests by operation and outcome.
# TYPE landlord_client_upstream_requests_total counter
landlord_client_upstream_requests_total{operation="search",outcome="not_found"} 1
landlord_client_upstream_requests_total{operation="search",outcome="success"} 1
`
		assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
			"landlord_client_cache_lookups_total",
			"landlord_client_upstream_requests_total",
		))

		n, err := testutil.GatherAndCount(reg, "landlord_client_upstream_request_duration_seconds")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("records stale hits and refresh failures", func(t *testing.T) {
		t.Parallel()

		reg := prometheus.NewRegistry()
		m, err := landlord.NewMetrics(reg)
		require.NoError(t, err)

		d := newFakeDirectory(t)
		d.setRecord("tenant-1", tenantRecord{status: http.StatusBadGateway})
		clock := newTestClock()
		cache := landlord.NewLRUCache(10)
		require.NoError(t, cache.CacheTenantURLLookup(context.Background(), "tenant-1", "https://old.example.com/", clock.Unix()-1))
		client := newTestClient(t, d,
			landlord.WithMetrics(m),
			landlord.WithCache(cache),
			landlord.WithClock(clock.Now),
			landlord.WithBlockOnRefresh(true),
		)

		_, err = client.LookupTenantURL(context.Background(), "tenant-1")
		require.NoError(t, err)

		expected := `
# HELP landlord_client_cache_lookups_total Cache reads by lookup kind and result (hit, miss, stale).
# TYPE landlord_client_cache_lookups_total counter
landlord_client_cache_lookups_total{lookup="tenant_url",result="stale"} 1
# HELP landlord_client_refresh_failures_total Failed refreshes of expired tenant URLs that fell back to the stale value.
# TYPE landlord_client_refresh_failures_total counter
landlord_client_refresh_failures_total{mode="blocking"} 1
`
		assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
			"landlord_client_cache_lookups_total",
			"landlord_client_refresh_failures_total",
		))
	})

	t.Run("counts coalesced lookups", func(t *testing.T) {
		t.Parallel()

		reg := prometheus.NewRegistry()
		m, err := landlord.NewMetrics(reg)
		require.NoError(t, err)

		d := newFakeDirectory(t)
		d.addTenant("acme.example.com", "tenant-1", tenantRecord{})
		release := d.block("acme.example.com")
		client := newTestClient(t, d, landlord.WithMetrics(m))

		done := make(chan struct{}, 2)
		for range 2 {
			go func() {
				_, _ = client.LookupTenantID(context.Background(), "acme.example.com")
				done <- struct{}{}
			}()
		}
		require.Eventually(t, func() bool { return d.searchCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		release()
		<-done
		<-done

		n, err := testutil.GatherAndCount(reg, "landlord_client_coalesced_lookups_total")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("registering twice fails", func(t *testing.T) {
		t.Parallel()

		reg := prometheus.NewRegistry()
		_, err := landlord.NewMetrics(reg)
		require.NoError(t, err)

		_, err = landlord.NewMetrics(reg)
		assert.ErrorIs(t, err, landlord.ErrMetricsRegistration)
	})

	t.Run("nil registerer", func(t *testing.T) {
		t.Parallel()

		m, err := landlord.NewMetrics(nil)
		require.NoError(t, err)
		assert.NotNil(t, m)
	})
}
