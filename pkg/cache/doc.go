// Package cache provides a generic, thread-safe LRU (Least Recently Used) cache.
//
// The cache holds at most a fixed number of entries. Once an insert pushes it
// past capacity, the entry that was read or written least recently is dropped.
// Get, Put and Remove are O(1).
//
// # Usage
//
//	c := cache.NewLRUCache[string, string](1000)
//
//	c.Put("acme.example.com", "2f6c1a3e-0d5b-4f1c-9a55-8d0c3b1e7f42")
//
//	if id, ok := c.Get("acme.example.com"); ok {
//		// use id
//	}
//
// Peek reads an entry without refreshing its recency, which is handy for
// diagnostics that must not disturb eviction order. Stats returns hit, miss
// and eviction counters for metrics export.
//
// All methods may be called from multiple goroutines.
package cache
