package landlord_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/landlord"
)

// baseTime is the fixed clock used by most tests.
var baseTime = time.Unix(1_700_000_000, 0)

type tenantRecord struct {
	domain     string
	isHTTPSite bool
	maxAge     int // 0 omits Cache-Control
	status     int // non-zero replaces the response with this status
	body       string
}

// fakeDirectory is an in-process Landlord directory.
type fakeDirectory struct {
	server *httptest.Server

	mu         sync.Mutex
	domains    map[string]string       // domain -> tenant id
	records    map[string]tenantRecord // tenant id -> record
	searchBody map[string]string       // domain -> raw search response
	gates      map[string]chan struct{}
	userAgents []string
	pingStatus int

	searchCalls atomic.Int32
	fetchCalls  atomic.Int32
	pingCalls   atomic.Int32
}

func newFakeDirectory(t *testing.T) *fakeDirectory {
	t.Helper()

	d := &fakeDirectory{
		domains:    make(map[string]string),
		records:    make(map[string]tenantRecord),
		searchBody: make(map[string]string),
		gates:      make(map[string]chan struct{}),
		pingStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/tenants", d.search)
	mux.HandleFunc("GET /v1/tenants/{id}", d.fetch)
	mux.HandleFunc("GET /ping", d.ping)
	d.server = httptest.NewServer(mux)
	t.Cleanup(func() {
		d.releaseAll()
		d.server.Close()
	})
	return d
}

func (d *fakeDirectory) addTenant(domain, id string, rec tenantRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.domains[domain] = id
	if rec.domain == "" && rec.status == 0 && rec.body == "" {
		rec.domain = domain
	}
	d.records[id] = rec
}

func (d *fakeDirectory) setRecord(id string, rec tenantRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[id] = rec
}

func (d *fakeDirectory) setSearchBody(domain, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.searchBody[domain] = body
}

func (d *fakeDirectory) setPingStatus(status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pingStatus = status
}

// block holds requests for key (a domain or tenant id) until the returned
// function is called.
func (d *fakeDirectory) block(key string) (release func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch := make(chan struct{})
	d.gates[key] = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.gates, key)
			d.mu.Unlock()
			close(ch)
		})
	}
}

func (d *fakeDirectory) releaseAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, ch := range d.gates {
		close(ch)
		delete(d.gates, key)
	}
}

func (d *fakeDirectory) wait(key string) {
	d.mu.Lock()
	ch := d.gates[key]
	d.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func (d *fakeDirectory) lastUserAgent() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.userAgents) == 0 {
		return ""
	}
	return d.userAgents[len(d.userAgents)-1]
}

func (d *fakeDirectory) record(r *http.Request) {
	d.mu.Lock()
	d.userAgents = append(d.userAgents, r.UserAgent())
	d.mu.Unlock()
}

func (d *fakeDirectory) search(w http.ResponseWriter, r *http.Request) {
	d.searchCalls.Add(1)
	d.record(r)
	domain := r.URL.Query().Get("domain")
	d.wait(domain)

	d.mu.Lock()
	body, raw := d.searchBody[domain]
	id, ok := d.domains[domain]
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case raw:
		_, _ = w.Write([]byte(body))
	case !ok:
		_, _ = w.Write([]byte("[]"))
	default:
		_ = json.NewEncoder(w).Encode([]map[string]string{{"tenantId": id}})
	}
}

func (d *fakeDirectory) fetch(w http.ResponseWriter, r *http.Request) {
	d.fetchCalls.Add(1)
	d.record(r)
	id := r.PathValue("id")
	d.wait(id)

	d.mu.Lock()
	rec, ok := d.records[id]
	d.mu.Unlock()

	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if rec.status != 0 {
		http.Error(w, http.StatusText(rec.status), rec.status)
		return
	}
	if rec.maxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", rec.maxAge))
	}
	w.Header().Set("Content-Type", "application/json")
	if rec.body != "" {
		_, _ = w.Write([]byte(rec.body))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tenantId":   id,
		"domain":     rec.domain,
		"isHttpSite": rec.isHTTPSite,
	})
}

func (d *fakeDirectory) ping(w http.ResponseWriter, r *http.Request) {
	d.pingCalls.Add(1)
	d.record(r)

	d.mu.Lock()
	status := d.pingStatus
	d.mu.Unlock()

	w.WriteHeader(status)
	_, _ = w.Write([]byte("OK"))
}

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: baseTime}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *testClock) Unix() int64 {
	return c.Now().Unix()
}

func newTestClient(t *testing.T, d *fakeDirectory, opts ...landlord.Option) *landlord.Client {
	t.Helper()

	client, err := landlord.New(append([]landlord.Option{landlord.WithEndpoint(d.server.URL)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		d.releaseAll()
		_ = client.Close()
	})
	return client
}

// missCache stores nothing, so every lookup reaches the directory.
type missCache struct {
	landlord.BaseCache
}

func (missCache) GetTenantIDLookup(context.Context, string) (string, error) {
	return "", landlord.ErrCacheMiss
}

func (missCache) CacheTenantIDLookup(context.Context, string, string) error {
	return nil
}

func (missCache) GetTenantURLLookup(context.Context, string) (landlord.TenantURL, error) {
	return landlord.TenantURL{}, landlord.ErrCacheMiss
}

func (missCache) CacheTenantURLLookup(context.Context, string, string, int64) error {
	return nil
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetTenantIDLookup(ctx context.Context, domain string) (string, error) {
	args := m.Called(ctx, domain)
	return args.String(0), args.Error(1)
}

func (m *mockCache) CacheTenantIDLookup(ctx context.Context, domain, tenantID string) error {
	args := m.Called(ctx, domain, tenantID)
	return args.Error(0)
}

func (m *mockCache) GetTenantURLLookup(ctx context.Context, tenantID string) (landlord.TenantURL, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(landlord.TenantURL), args.Error(1)
}

func (m *mockCache) CacheTenantURLLookup(ctx context.Context, tenantID, url string, expiry int64) error {
	args := m.Called(ctx, tenantID, url, expiry)
	return args.Error(0)
}
