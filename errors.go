package landlord

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a lookup key is empty.
	ErrInvalidArgument = errors.New("landlord: invalid argument")

	// ErrTenantNotFound is returned when no tenant is registered for a domain.
	ErrTenantNotFound = errors.New("landlord: tenant not found")

	// ErrTenantIDNotFound is returned when the directory does not know a tenant id.
	ErrTenantIDNotFound = errors.New("landlord: tenant id not found")

	// ErrTenantLookupFailed covers every other directory failure: transport
	// errors, unexpected status codes and malformed response bodies.
	ErrTenantLookupFailed = errors.New("landlord: tenant lookup failed")

	// ErrLandlordNotAvailable is returned by ValidateConfiguration when the
	// directory cannot be reached.
	ErrLandlordNotAvailable = errors.New("landlord: directory not available")

	// ErrNotImplemented is returned by BaseCache methods that an embedding
	// cache did not override.
	ErrNotImplemented = errors.New("landlord: cache operation not implemented")

	// ErrCacheMiss is returned by caches when a key is absent.
	ErrCacheMiss = errors.New("landlord: cache miss")

	// ErrInvalidCache is returned by New when a nil cache is supplied.
	ErrInvalidCache = errors.New("landlord: cache must not be nil")

	// ErrInvalidEndpoint is returned by New when the endpoint is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("landlord: invalid endpoint")
)

// LookupError carries the lookup key a failure applies to.
// Kind is one of the sentinel errors above; Err, when set, is the underlying cause.
//
//	var lerr *landlord.LookupError
//	if errors.As(err, &lerr) && errors.Is(err, landlord.ErrTenantNotFound) {
//		log.Printf("no tenant for %s", lerr.Key)
//	}
type LookupError struct {
	Kind error
	Key  string
	Err  error
}

func (e *LookupError) Error() string {
	msg := e.Kind.Error()
	if e.Key != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Key)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *LookupError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newLookupError(kind error, key string, cause error) *LookupError {
	return &LookupError{Kind: kind, Key: key, Err: cause}
}
