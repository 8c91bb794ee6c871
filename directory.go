package landlord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/cachecontrol/cacheobject"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseBytes caps how much of a directory response is read.
const maxResponseBytes = 1 << 20

// directory talks to the Landlord HTTP API.
type directory struct {
	endpoint   string
	userAgent  string
	client     *http.Client
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	metrics    *Metrics
}

// tenantInfo is the part of a tenant record the client needs.
type tenantInfo struct {
	Domain     string
	IsHTTPSite bool
}

// URL returns the tenant's canonical base URL: scheme chosen by IsHTTPSite,
// trailing slashes of the domain collapsed into exactly one.
func (t tenantInfo) URL() string {
	scheme := "https"
	if t.IsHTTPSite {
		scheme = "http"
	}
	return scheme + "://" + strings.TrimRight(t.Domain, "/") + "/"
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// searchTenantID asks the directory which tenant owns domain.
// When several tenants match, the first one in the response wins.
func (d *directory) searchTenantID(ctx context.Context, domain string) (id string, err error) {
	ctx, finish := d.start(ctx, opSearch, attribute.String("landlord.domain", domain))
	defer func() { finish(err) }()

	res, err := d.get(ctx, "/v1/tenants", url.Values{"domain": {domain}})
	if err != nil {
		return "", newLookupError(ErrTenantLookupFailed, domain, err)
	}
	if !isSuccess(res.status) {
		return "", newLookupError(ErrTenantLookupFailed, domain, unexpectedStatus(res.status))
	}

	var tenants []json.RawMessage
	if err := json.Unmarshal(res.body, &tenants); err != nil {
		return "", newLookupError(ErrTenantLookupFailed, domain, fmt.Errorf("decode tenants: %w", err))
	}
	if tenants == nil {
		return "", newLookupError(ErrTenantLookupFailed, domain, errors.New("decode tenants: response is not an array"))
	}
	if len(tenants) == 0 {
		return "", newLookupError(ErrTenantNotFound, domain, nil)
	}

	var first struct {
		TenantID *string `json:"tenantId"`
	}
	if err := json.Unmarshal(tenants[0], &first); err != nil {
		return "", newLookupError(ErrTenantLookupFailed, domain, fmt.Errorf("decode tenant: %w", err))
	}
	if first.TenantID == nil || *first.TenantID == "" {
		return "", newLookupError(ErrTenantLookupFailed, domain, errors.New("decode tenant: missing tenantId"))
	}
	return *first.TenantID, nil
}

// fetchTenant loads the tenant record for tenantID. The response header is
// returned alongside so the caller can honour its Cache-Control.
func (d *directory) fetchTenant(ctx context.Context, tenantID string) (info tenantInfo, header http.Header, err error) {
	ctx, finish := d.start(ctx, opFetch, attribute.String("landlord.tenant_id", tenantID))
	defer func() { finish(err) }()

	res, err := d.get(ctx, "/v1/tenants/"+url.PathEscape(tenantID), nil)
	if err != nil {
		return tenantInfo{}, nil, newLookupError(ErrTenantLookupFailed, tenantID, err)
	}
	if res.status == http.StatusNotFound {
		return tenantInfo{}, nil, newLookupError(ErrTenantIDNotFound, tenantID, nil)
	}
	if !isSuccess(res.status) {
		return tenantInfo{}, nil, newLookupError(ErrTenantLookupFailed, tenantID, unexpectedStatus(res.status))
	}

	var body struct {
		Domain     *string `json:"domain"`
		IsHTTPSite *bool   `json:"isHttpSite"`
	}
	if err := json.Unmarshal(res.body, &body); err != nil {
		return tenantInfo{}, nil, newLookupError(ErrTenantLookupFailed, tenantID, fmt.Errorf("decode tenant: %w", err))
	}
	if body.Domain == nil || body.IsHTTPSite == nil {
		return tenantInfo{}, nil, newLookupError(ErrTenantLookupFailed, tenantID, errors.New("decode tenant: missing domain or isHttpSite"))
	}

	return tenantInfo{Domain: *body.Domain, IsHTTPSite: *body.IsHTTPSite}, res.header, nil
}

// ping checks that the directory answers at all.
func (d *directory) ping(ctx context.Context) (err error) {
	ctx, finish := d.start(ctx, opPing)
	defer func() { finish(err) }()

	res, err := d.get(ctx, "/ping", nil)
	if err != nil {
		return newLookupError(ErrLandlordNotAvailable, d.endpoint, err)
	}
	if !isSuccess(res.status) {
		return newLookupError(ErrLandlordNotAvailable, d.endpoint, unexpectedStatus(res.status))
	}
	return nil
}

// start opens a client span for op and returns a function that closes it
// and records the call in metrics.
func (d *directory) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	begin := time.Now()
	ctx, span := d.tracer.Start(ctx, "landlord."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		d.metrics.upstream(op, upstreamOutcome(err), time.Since(begin))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (d *directory) get(ctx context.Context, path string, query url.Values) (*response, error) {
	target := d.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", d.userAgent)
	d.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// maxAge returns the max-age directive of the response, if any.
func maxAge(header http.Header) (int64, bool) {
	values := header.Values("Cache-Control")
	if len(values) == 0 {
		return 0, false
	}
	directives, err := cacheobject.ParseResponseCacheControl(strings.Join(values, ", "))
	if err != nil || directives.MaxAge < 0 {
		return 0, false
	}
	return int64(directives.MaxAge), true
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func unexpectedStatus(status int) error {
	return fmt.Errorf("unexpected status %d %s", status, http.StatusText(status))
}
