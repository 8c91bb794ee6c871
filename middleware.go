package landlord

import (
	"errors"
	"net"
	"net/http"
	"strings"
)

// ErrorHandler writes the response for a request whose tenant could not be resolved.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareConfig struct {
	resolveURL   bool
	skipPaths    []string
	errorHandler ErrorHandler
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

// WithResolveURL makes the middleware also look up the tenant's base URL.
func WithResolveURL(resolve bool) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.resolveURL = resolve
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution.
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithMiddlewareErrorHandler replaces the default error responses.
func WithMiddlewareErrorHandler(handler ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// Middleware resolves the request host to a tenant and stores it in the
// request context, see FromContext. The host is lowercased and its port dropped.
func Middleware(client *Client, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{errorHandler: defaultErrorHandler}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			domain := requestDomain(r)
			id, err := client.LookupTenantID(r.Context(), domain)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			t := Tenant{ID: id, Domain: domain}
			if cfg.resolveURL {
				t.URL, err = client.LookupTenantURL(r.Context(), id)
				if err != nil {
					cfg.errorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), t)))
		})
	}
}

func requestDomain(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		http.Error(w, "Invalid tenant host", http.StatusBadRequest)
	case errors.Is(err, ErrTenantNotFound), errors.Is(err, ErrTenantIDNotFound):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	default:
		http.Error(w, "Tenant lookup failed", http.StatusBadGateway)
	}
}
