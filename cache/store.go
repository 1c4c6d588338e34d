package cache

import "time"

// EvictionReason reports why an entry left the store.
type EvictionReason int

const (
	// EvictionNone is the zero reason, used when priming the store manually.
	EvictionNone EvictionReason = iota
	// EvictionReplaced means a Set overwrote the entry.
	EvictionReplaced
	// EvictionRemoved means the entry was removed explicitly.
	EvictionRemoved
	// EvictionExpired means the entry passed its sliding or absolute deadline.
	EvictionExpired
	// EvictionCapacity means the entry was dropped under capacity pressure.
	EvictionCapacity
)

func (r EvictionReason) String() string {
	switch r {
	case EvictionNone:
		return "none"
	case EvictionReplaced:
		return "replaced"
	case EvictionRemoved:
		return "removed"
	case EvictionExpired:
		return "expired"
	case EvictionCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// Priority hints the capacity scanner about which entries to drop first.
// It does not guarantee retention and has no effect on expiration.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	// PriorityNeverRemove exempts the entry from capacity eviction only;
	// it still expires and can still be removed explicitly.
	PriorityNeverRemove
)

// EvictionCallback is invoked exactly once when an entry leaves the store,
// with the removed key, the removed value and the reason. Callbacks run on
// the goroutine that triggered the eviction (janitor, Set or Remove) and
// must not call back into the store synchronously.
type EvictionCallback func(key string, value any, reason EvictionReason)

// EntryOptions bundles the expiry policy attached to a stored entry.
type EntryOptions struct {
	// SlidingExpiration evicts the entry if it has not been read for this
	// long. Zero disables sliding expiry.
	SlidingExpiration time.Duration
	// AbsoluteExpiration evicts the entry this long after Set regardless of
	// access. Zero disables absolute expiry.
	AbsoluteExpiration time.Duration
	Priority           Priority
	// OnEvicted callbacks fire once when the entry is replaced, removed,
	// expired or dropped for capacity.
	OnEvicted []EvictionCallback
}

// Store is a process-wide key/value memory cache with TTL and priority
// semantics and a post-eviction hook. The review service keeps the whole
// review collection under a single well-known key in a Store.
type Store interface {
	// TryGet returns the live value for key, or found=false on miss or
	// post-expiry. Reads refresh the sliding-expiration clock.
	TryGet(key string) (any, bool)
	// Set inserts or replaces the entry under key. Replacing an entry fires
	// the old entry's eviction callbacks with EvictionReplaced.
	Set(key string, value any, opts EntryOptions)
	// Remove evicts key explicitly, firing callbacks with EvictionRemoved.
	Remove(key string)
	// Len reports the number of live entries.
	Len() int
	// Stop halts the expiry janitor. The store remains readable after Stop
	// but no further expirations occur.
	Stop()
}
