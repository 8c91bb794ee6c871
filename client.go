package landlord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"reflect"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/dmitrymomot/landlord/pkg/broadcast"
	"github.com/dmitrymomot/landlord/pkg/logger"
)

// Client resolves domains to tenant ids and tenant ids to base URLs through
// the Landlord directory, caching answers and coalescing concurrent lookups
// for the same key. It is safe for concurrent use.
type Client struct {
	cache          Cache
	dir            *directory
	blockOnRefresh bool
	logger         *slog.Logger
	metrics        *Metrics
	onError        func(ErrorEvent)
	now            func() time.Time
	events         *broadcast.MemoryBroadcaster[ErrorEvent]
	ownsHTTPClient bool

	idFlights    flightGroup[string] // domain -> tenant id lookup
	urlFlights   flightGroup[string] // tenant id -> tenant url lookup
	fetchFlights flightGroup[string] // tenant id -> directory fetch-and-cache

	mu        sync.Mutex
	closed    bool
	refreshes sync.WaitGroup
}

// New creates a Client.
//
// It returns ErrInvalidCache when WithCache was given a nil cache and
// ErrInvalidEndpoint when the endpoint is not an absolute http(s) URL.
func New(opts ...Option) (*Client, error) {
	o := &options{
		endpoint: DefaultEndpoint,
		timeout:  DefaultTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.cacheSet && isNil(o.cache) {
		return nil, ErrInvalidCache
	}
	if !o.cacheSet {
		o.cache = NewLRUCache(DefaultCacheCapacity)
	}

	endpoint, err := normalizeEndpoint(o.endpoint)
	if err != nil {
		return nil, err
	}

	if o.logger == nil {
		o.logger = logger.Discard()
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	httpClient, owned := o.httpClient, false
	if httpClient == nil {
		httpClient, owned = newHTTPClient(o.timeout), true
	}

	userAgent := defaultUserAgent
	if o.name != "" {
		userAgent = o.name + " (" + defaultUserAgent + ")"
	}

	return &Client{
		cache:          o.cache,
		blockOnRefresh: o.blockOnRefresh,
		logger:         o.logger.With(logger.Component("landlord")),
		metrics:        o.metrics,
		onError:        o.onError,
		now:            o.now,
		events:         broadcast.NewMemoryBroadcaster[ErrorEvent](eventBufferSize),
		ownsHTTPClient: owned,
		dir: &directory{
			endpoint:   endpoint,
			userAgent:  userAgent,
			client:     httpClient,
			tracer:     o.tracerProvider.Tracer(instrumentationName),
			propagator: otel.GetTextMapPropagator(),
			metrics:    o.metrics,
		},
	}, nil
}

// LookupTenantID returns the id of the tenant that owns domain.
//
// A cached answer is returned without contacting the directory. Concurrent
// calls for the same domain share a single resolution. Errors wrap
// ErrInvalidArgument, ErrTenantNotFound or ErrTenantLookupFailed; if ctx ends
// first, ctx.Err() is returned.
func (c *Client) LookupTenantID(ctx context.Context, domain string) (string, error) {
	if domain == "" {
		return "", newLookupError(ErrInvalidArgument, "", errors.New("domain must not be empty"))
	}

	id, shared, err := c.idFlights.do(ctx, domain, func(ctx context.Context) (string, error) {
		return c.resolveTenantID(ctx, domain)
	})
	if shared {
		c.metrics.shared(lookupTenantID)
	}
	return id, err
}

// LookupTenantURL returns the base URL of a tenant, e.g. "https://acme.example.com/".
//
// Fresh cached URLs are returned without contacting the directory. An expired
// URL is refreshed according to WithBlockOnRefresh; refresh failures are
// published to Subscribe and the stale URL is returned. Without a cached
// entry, directory errors are returned directly and wrap ErrTenantIDNotFound
// or ErrTenantLookupFailed.
func (c *Client) LookupTenantURL(ctx context.Context, tenantID string) (string, error) {
	if tenantID == "" {
		return "", newLookupError(ErrInvalidArgument, "", errors.New("tenant id must not be empty"))
	}

	u, shared, err := c.urlFlights.do(ctx, tenantID, func(ctx context.Context) (string, error) {
		return c.resolveTenantURL(ctx, tenantID)
	})
	if shared {
		c.metrics.shared(lookupTenantURL)
	}
	return u, err
}

// ValidateConfiguration checks that the directory is reachable.
// Failures wrap ErrLandlordNotAvailable.
func (c *Client) ValidateConfiguration(ctx context.Context) error {
	return c.dir.ping(ctx)
}

// Close waits for background refreshes to finish and ends all error
// subscriptions. Lookups still work afterwards but no longer refresh in the background.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.refreshes.Wait()
	if c.ownsHTTPClient {
		c.dir.client.CloseIdleConnections()
	}
	return c.events.Close()
}

func (c *Client) resolveTenantID(ctx context.Context, domain string) (string, error) {
	id, err := c.cache.GetTenantIDLookup(ctx, domain)
	if err == nil {
		c.metrics.cacheResult(lookupTenantID, cacheHit)
		return id, nil
	}
	c.metrics.cacheResult(lookupTenantID, cacheMiss)
	c.logCacheError(ctx, "cache read failed", err, logger.Domain(domain))

	id, err = c.dir.searchTenantID(ctx, domain)
	if err != nil {
		return "", err
	}

	if err := c.cache.CacheTenantIDLookup(ctx, domain, id); err != nil {
		c.logCacheError(ctx, "cache write failed", err, logger.Domain(domain))
	}
	return id, nil
}

func (c *Client) resolveTenantURL(ctx context.Context, tenantID string) (string, error) {
	cached, err := c.cache.GetTenantURLLookup(ctx, tenantID)
	if err != nil {
		c.metrics.cacheResult(lookupTenantURL, cacheMiss)
		c.logCacheError(ctx, "cache read failed", err, logger.TenantID(tenantID))
		return c.fetchTenantURL(ctx, tenantID)
	}

	if !cached.Expired(c.unixNow()) {
		c.metrics.cacheResult(lookupTenantURL, cacheHit)
		return cached.URL, nil
	}
	c.metrics.cacheResult(lookupTenantURL, cacheStale)

	if !c.blockOnRefresh {
		c.refreshInBackground(ctx, tenantID, cached.URL)
		return cached.URL, nil
	}

	fresh, err := c.fetchTenantURL(ctx, tenantID)
	if err != nil {
		c.emit(ctx, ErrorEvent{TenantID: tenantID, StaleURL: cached.URL, Mode: RefreshBlocking, Err: err})
		return cached.URL, nil
	}
	return fresh, nil
}

// fetchTenantURL runs fetchAndCache, sharing it with any refresh of the same
// tenant that is already talking to the directory.
func (c *Client) fetchTenantURL(ctx context.Context, tenantID string) (string, error) {
	u, _, err := c.fetchFlights.do(ctx, tenantID, func(ctx context.Context) (string, error) {
		return c.fetchAndCache(ctx, tenantID)
	})
	return u, err
}

func (c *Client) fetchAndCache(ctx context.Context, tenantID string) (string, error) {
	info, header, err := c.dir.fetchTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}
	tenantURL := info.URL()

	age, ok := maxAge(header)
	if !ok {
		c.logger.DebugContext(ctx, "directory response has no max-age, not caching", logger.TenantID(tenantID))
		return tenantURL, nil
	}

	if err := c.cache.CacheTenantURLLookup(ctx, tenantID, tenantURL, c.unixNow()+age); err != nil {
		c.logCacheError(ctx, "cache write failed", err, logger.TenantID(tenantID))
	}
	return tenantURL, nil
}

func (c *Client) refreshInBackground(ctx context.Context, tenantID, staleURL string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.refreshes.Add(1)
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer c.refreshes.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.ErrorContext(ctx, "panic in background refresh",
					logger.TenantID(tenantID),
					slog.String("panic", fmt.Sprint(r)),
					slog.String("stacktrace", string(debug.Stack())),
				)
			}
		}()

		if _, err := c.fetchTenantURL(ctx, tenantID); err != nil {
			c.emit(ctx, ErrorEvent{TenantID: tenantID, StaleURL: staleURL, Mode: RefreshBackground, Err: err})
		}
	}()
}

func (c *Client) logCacheError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if errors.Is(err, ErrCacheMiss) {
		return
	}
	args := make([]any, 0, len(attrs)+1)
	for _, a := range attrs {
		args = append(args, a)
	}
	c.logger.DebugContext(ctx, msg, append(args, logger.Error(err))...)
}

// unixNow returns the current time in whole seconds, rounded to nearest.
func (c *Client) unixNow() int64 {
	return int64(math.Round(float64(c.now().UnixMilli()) / 1000))
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func normalizeEndpoint(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidEndpoint)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidEndpoint)
	}
	return strings.TrimRight(endpoint, "/"), nil
}

// isNil catches typed nil pointers hidden in a non-nil interface.
func isNil(c Cache) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
