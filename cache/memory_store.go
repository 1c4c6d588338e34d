package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultJanitorInterval is how often the expiry janitor scans when no
// interval is configured.
const DefaultJanitorInterval = 30 * time.Second

// StoreConfig configures the in-memory collection store.
type StoreConfig struct {
	// Capacity caps the number of live entries; 0 means unbounded.
	Capacity int
	// JanitorInterval sets how often expired entries are scanned for.
	// Zero uses DefaultJanitorInterval.
	JanitorInterval time.Duration
}

// entry is the unit stored under a key. Expiry bookkeeping is atomic so
// reads can slide the expiration clock without a lock.
type entry struct {
	key        string
	value      any
	opts       EntryOptions
	createdAt  time.Time
	lastAccess atomic.Int64 // unix nanos
	evicted    atomic.Bool
}

func (e *entry) expired(now time.Time) bool {
	if e.opts.AbsoluteExpiration > 0 && now.Sub(e.createdAt) >= e.opts.AbsoluteExpiration {
		return true
	}
	if e.opts.SlidingExpiration > 0 {
		last := time.Unix(0, e.lastAccess.Load())
		if now.Sub(last) >= e.opts.SlidingExpiration {
			return true
		}
	}
	return false
}

// evict fires the entry's callbacks exactly once and reports whether this
// call won the race to do so.
func (e *entry) evict(reason EvictionReason) bool {
	if !e.evicted.CompareAndSwap(false, true) {
		return false
	}
	for _, cb := range e.opts.OnEvicted {
		cb(e.key, e.value, reason)
	}
	return true
}

// memoryStore implements Store on a sharded concurrent map with a janitor
// goroutine enforcing sliding/absolute expiry.
type memoryStore struct {
	entries  *xsync.MapOf[string, *entry]
	capacity int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMemoryStore constructs the default Store implementation and starts its
// expiry janitor. Call Stop to halt the janitor when the store is no longer
// needed.
func NewMemoryStore(cfg StoreConfig) Store {
	interval := cfg.JanitorInterval
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}

	s := &memoryStore{
		entries:  xsync.NewMapOf[string, *entry](),
		capacity: cfg.Capacity,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go s.janitor(interval)
	return s
}

func (s *memoryStore) TryGet(key string) (any, bool) {
	e, ok := s.entries.Load(key)
	if !ok {
		return nil, false
	}

	now := time.Now()
	if e.expired(now) {
		// Expired but not yet collected by the janitor; treat as a miss and
		// evict eagerly so callbacks fire without waiting for the next scan.
		if _, loaded := s.entries.LoadAndDelete(key); loaded {
			e.evict(EvictionExpired)
		}
		return nil, false
	}

	e.lastAccess.Store(now.UnixNano())
	return e.value, true
}

func (s *memoryStore) Set(key string, value any, opts EntryOptions) {
	now := time.Now()
	e := &entry{
		key:       key,
		value:     value,
		opts:      opts,
		createdAt: now,
	}
	e.lastAccess.Store(now.UnixNano())

	if prev, loaded := s.entries.LoadAndDelete(key); loaded {
		prev.evict(EvictionReplaced)
	}

	if s.capacity > 0 && s.entries.Size() >= s.capacity {
		s.evictForCapacity()
	}

	s.entries.Store(key, e)
}

func (s *memoryStore) Remove(key string) {
	if e, loaded := s.entries.LoadAndDelete(key); loaded {
		e.evict(EvictionRemoved)
	}
}

func (s *memoryStore) Len() int {
	return s.entries.Size()
}

func (s *memoryStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// evictForCapacity drops the least recently accessed entry that is not
// marked PriorityNeverRemove. Priority is a hint: if everything is pinned,
// nothing is dropped and the store grows past capacity.
func (s *memoryStore) evictForCapacity() {
	var victim *entry
	var victimAccess int64

	s.entries.Range(func(_ string, e *entry) bool {
		if e.opts.Priority == PriorityNeverRemove {
			return true
		}
		access := e.lastAccess.Load()
		if victim == nil || access < victimAccess ||
			(access == victimAccess && e.opts.Priority < victim.opts.Priority) {
			victim = e
			victimAccess = access
		}
		return true
	})

	if victim == nil {
		return
	}
	if e, loaded := s.entries.LoadAndDelete(victim.key); loaded {
		e.evict(EvictionCapacity)
	}
}

func (s *memoryStore) janitor(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.collectExpired()
		}
	}
}

func (s *memoryStore) collectExpired() {
	now := time.Now()
	s.entries.Range(func(key string, e *entry) bool {
		if e.expired(now) {
			if _, loaded := s.entries.LoadAndDelete(key); loaded {
				e.evict(EvictionExpired)
			}
		}
		return true
	})
}
