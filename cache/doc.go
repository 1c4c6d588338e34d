// Package cache provides the caching primitives the review service builds on.
//
// # Overview
//
// Two caching surfaces live here:
//
//   - Store: a process-wide key/value memory cache with sliding/absolute
//     expiration, a priority hint for capacity pressure, and post-eviction
//     callbacks. The review service keeps the full review collection under a
//     single well-known key in a Store, and the refresh loop re-populates
//     that key on a fixed cadence.
//
//   - QueryCache: a read-through cache for repository query results, keyed
//     by KeySerializer-built keys. The default backend (internal/cacheinfra)
//     wraps sturdyc, which adds stampede protection and early refreshes.
//
// # Basic Usage
//
//	store := cache.NewMemoryStore(cache.StoreConfig{})
//	defer store.Stop()
//
//	store.Set("ProductReviews", snapshot, cache.EntryOptions{
//		AbsoluteExpiration: 20 * time.Minute,
//		Priority:           cache.PriorityNeverRemove,
//		OnEvicted:          []cache.EvictionCallback{rearm},
//	})
//
//	if v, ok := store.TryGet("ProductReviews"); ok {
//		reviews := v.([]reviews.Review)
//		_ = reviews
//	}
//
// For query results, use the generic helper with a QueryCache:
//
//	key := serializer.SerializeKey("GetVisibleForProduct", productID)
//	result, err := cache.GetOrFetch(ctx, queryCache, key, func(ctx context.Context) ([]reviews.Review, error) {
//		return repo.GetVisibleForProduct(ctx, productID)
//	})
//
// # Concurrency
//
// Store values are shared by every reader; treat them as immutable and
// replace the whole value on mutation (copy-on-write) so concurrent readers
// never observe a half-updated collection. The Store itself is safe for
// concurrent use from request handlers and the refresh loop.
//
// # Key Serialization
//
// The default key serializer handles basic types directly, recurses into
// slices and maps (sorted for determinism), and falls back to JSON for
// complex types. When JSON marshaling fails it degrades to type information
// rather than panicking, so cache operations continue with problematic
// values.
package cache
