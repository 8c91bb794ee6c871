// Package broadcast provides type-safe, non-blocking one-to-many message delivery.
//
// Basic usage:
//
//	b := broadcast.NewMemoryBroadcaster[string](10)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	b.Broadcast(ctx, broadcast.Message[string]{Data: "hello"})
//
//	for msg := range sub.Receive(ctx) {
//		fmt.Println(msg.Data)
//	}
//
// Publishers never wait on consumers. When a subscriber's buffer is full the
// message is skipped for that subscriber only and counted in Dropped. A
// subscription ends when its context is cancelled, when it is closed, or when
// the broadcaster is closed.
package broadcast
