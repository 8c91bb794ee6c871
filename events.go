package landlord

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/landlord/pkg/broadcast"
	"github.com/dmitrymomot/landlord/pkg/logger"
)

// RefreshMode names how an expired tenant URL was being refreshed when it failed.
type RefreshMode string

const (
	// RefreshBackground: the stale URL was returned at once and the refresh ran detached.
	RefreshBackground RefreshMode = "background"
	// RefreshBlocking: the caller waited for the refresh and got the stale URL after it failed.
	RefreshBlocking RefreshMode = "blocking"
)

// eventBufferSize is the per-subscriber buffer of the error event broadcaster.
const eventBufferSize = 64

// ErrorEvent reports a failed refresh whose error was not returned to any
// caller because a stale URL was served instead.
type ErrorEvent struct {
	TenantID string
	StaleURL string
	Mode     RefreshMode
	Err      error
	Time     time.Time
}

// Subscribe returns a subscription to refresh failures. The subscription ends
// when ctx is done, when it is closed, or when the client is closed.
// Events are dropped for a subscriber whose buffer is full; publishing never blocks.
func (c *Client) Subscribe(ctx context.Context) broadcast.Subscriber[ErrorEvent] {
	return c.events.Subscribe(ctx)
}

func (c *Client) emit(ctx context.Context, ev ErrorEvent) {
	ev.Time = c.now()

	c.logger.WarnContext(ctx, "tenant url refresh failed, serving stale url",
		logger.TenantID(ev.TenantID),
		slog.String("mode", string(ev.Mode)),
		logger.Error(ev.Err),
	)
	c.metrics.refreshFailed(ev.Mode)

	if c.onError != nil {
		c.onError(ev)
	}
	_ = c.events.Broadcast(ctx, broadcast.Message[ErrorEvent]{Data: ev})
}
