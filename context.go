package landlord

import (
	"context"
	"log/slog"
)

// Tenant is the tenant resolved for an incoming request.
type Tenant struct {
	ID     string `json:"id"`
	Domain string `json:"domain"`
	// URL is empty unless the middleware was asked to resolve it.
	URL string `json:"url,omitempty"`
}

type contextKey struct{}

// WithTenant adds a tenant to the context.
func WithTenant(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tenant from the context.
func FromContext(ctx context.Context) (Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(Tenant)
	return t, ok
}

// IDFromContext retrieves just the tenant id from the context.
func IDFromContext(ctx context.Context) (string, bool) {
	t, ok := FromContext(ctx)
	if !ok || t.ID == "" {
		return "", false
	}
	return t.ID, true
}

// LoggerExtractor returns a context extractor for pkg/logger that adds the
// tenant id of the request to every record.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("tenant_id", id), true
		}
		return slog.Attr{}, false
	}
}
