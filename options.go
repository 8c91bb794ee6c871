package landlord

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single directory request unless WithTimeout or
// WithHTTPClient says otherwise.
const DefaultTimeout = 10 * time.Second

type options struct {
	endpoint       string
	name           string
	cache          Cache
	cacheSet       bool
	blockOnRefresh bool
	httpClient     *http.Client
	timeout        time.Duration
	logger         *slog.Logger
	metrics        *Metrics
	tracerProvider trace.TracerProvider
	onError        func(ErrorEvent)
	now            func() time.Time
}

// Option configures a Client.
type Option func(*options)

// WithEndpoint sets the base URL of the directory. Defaults to DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		if endpoint != "" {
			o.endpoint = endpoint
		}
	}
}

// WithCache sets the cache. Defaults to an LRUCache of DefaultCacheCapacity.
// Passing nil makes New fail with ErrInvalidCache.
func WithCache(c Cache) Option {
	return func(o *options) {
		o.cache = c
		o.cacheSet = true
	}
}

// WithName prefixes the User-Agent with the calling application's name:
// "<name> (go-landlord-client/<version>)".
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithBlockOnRefresh selects how expired tenant URLs are refreshed.
// When true the caller waits for the directory and only falls back to the
// stale URL if that fails. When false (default) the stale URL is returned at
// once and the refresh runs in the background.
func WithBlockOnRefresh(block bool) Option {
	return func(o *options) {
		o.blockOnRefresh = block
	}
}

// WithHTTPClient sets the HTTP client used for directory calls. Its own
// Timeout applies; WithTimeout is ignored.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics, see NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for directory
// spans. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithErrorHandler registers a callback for refresh failures. It runs
// synchronously on the goroutine that observed the failure, so it should be quick.
func WithErrorHandler(fn func(ErrorEvent)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
