// Package landlord resolves tenants through the Landlord directory service.
//
// A Client maps a domain to a tenant id and a tenant id to the tenant's
// canonical base URL. Answers are cached (an in-memory LRU by default, or
// Redis via RedisCache) and concurrent lookups of the same key share one
// directory request.
//
// Tenant URLs expire according to the Cache-Control max-age of the directory
// response. An expired URL is either returned immediately while it is
// refreshed in the background (the default), or refreshed before returning
// when WithBlockOnRefresh(true) is set. In both modes a failed refresh falls
// back to the stale URL and is reported through Subscribe.
//
// Basic usage:
//
//	client, err := landlord.New(landlord.WithName("my-service"))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	id, err := client.LookupTenantID(ctx, "acme.example.com")
//	if errors.Is(err, landlord.ErrTenantNotFound) {
//		// unknown domain
//	}
//	base, err := client.LookupTenantURL(ctx, id)
//
// Watching refresh failures:
//
//	sub := client.Subscribe(ctx)
//	go func() {
//		for msg := range sub.Receive(ctx) {
//			log.Printf("refresh of %s failed: %v", msg.Data.TenantID, msg.Data.Err)
//		}
//	}()
//
// In an HTTP server, Middleware puts the Tenant for the request host into the
// request context:
//
//	r := chi.NewRouter()
//	r.Use(landlord.Middleware(client, landlord.WithSkipPaths("/health")))
package landlord
