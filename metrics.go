package landlord

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "landlord_client"

// Label values shared by the collectors.
const (
	lookupTenantID  = "tenant_id"
	lookupTenantURL = "tenant_url"

	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheStale = "stale"

	opSearch = "search"
	opFetch  = "fetch"
	opPing   = "ping"

	outcomeSuccess  = "success"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// Metrics holds the Prometheus collectors updated by a Client.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	cacheResults     *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	coalesced        *prometheus.CounterVec
	refreshFailures  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is useful in tests.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_lookups_total",
			Help:      "Cache reads by lookup kind and result (hit, miss, stale).",
		}, []string{"lookup", "result"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upstream_requests_total",
			Help:      "Directory requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Directory request latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		coalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "coalesced_lookups_total",
			Help:      "Lookups that shared an in-flight resolution with another caller.",
		}, []string{"lookup"}),
		refreshFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_failures_total",
			Help:      "Failed refreshes of expired tenant URLs that fell back to the stale value.",
		}, []string{"mode"}),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{
		m.cacheResults, m.upstreamRequests, m.upstreamDuration, m.coalesced, m.refreshFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Join(ErrMetricsRegistration, err)
		}
	}
	return m, nil
}

// ErrMetricsRegistration is returned by NewMetrics when a collector cannot be registered.
var ErrMetricsRegistration = errors.New("landlord: failed to register metrics")

func (m *Metrics) cacheResult(lookup, result string) {
	if m == nil {
		return
	}
	m.cacheResults.WithLabelValues(lookup, result).Inc()
}

func (m *Metrics) upstream(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(op, outcome).Inc()
	m.upstreamDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) shared(lookup string) {
	if m == nil {
		return
	}
	m.coalesced.WithLabelValues(lookup).Inc()
}

func (m *Metrics) refreshFailed(mode RefreshMode) {
	if m == nil {
		return
	}
	m.refreshFailures.WithLabelValues(string(mode)).Inc()
}

// upstreamOutcome classifies a directory call result for the outcome label.
func upstreamOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, ErrTenantNotFound), errors.Is(err, ErrTenantIDNotFound):
		return outcomeNotFound
	default:
		return outcomeError
	}
}
