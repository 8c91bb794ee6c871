package landlord

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// flightGroup coalesces concurrent resolutions of the same key.
//
// The first caller for a key starts fn; callers arriving before it settles
// wait for the same result. The key is forgotten as soon as fn returns, so
// the next call after settlement starts over.
type flightGroup[V any] struct {
	group singleflight.Group
}

// do runs fn for key unless a run is already in flight, and waits for the result.
//
// fn gets a context that keeps ctx's values but not its cancellation: one
// caller giving up must not fail the result shared with the others. A caller
// whose ctx is done stops waiting and gets ctx.Err(); the run itself carries on.
// shared reports whether the result was delivered to more than one caller.
func (g *flightGroup[V]) do(ctx context.Context, key string, fn func(context.Context) (V, error)) (v V, shared bool, err error) {
	detached := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case res := <-ch:
		v, _ = res.Val.(V)
		return v, res.Shared, res.Err
	case <-ctx.Done():
		return v, false, ctx.Err()
	}
}
