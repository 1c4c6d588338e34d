package reviews

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-product-reviews/cache"
)

// RefresherConfig controls the refresh cadence and the expiry policy
// attached to the collection entry.
type RefresherConfig struct {
	// Key is the well-known key holding the review collection.
	Key string
	// Interval is the wholesale reload cadence.
	Interval time.Duration
	// SlidingTTL and AbsoluteTTL form the entry's expiry policy. They
	// should comfortably exceed Interval so the ticker replaces the entry
	// before it can expire.
	SlidingTTL  time.Duration
	AbsoluteTTL time.Duration
}

// Refresher keeps the review collection warm independent of request
// traffic, bounding staleness to its interval. It is an explicit ticker
// goroutine that owns its cancellation; the entry it writes also carries an
// eviction callback that schedules an immediate asynchronous reload, so the
// key is repopulated promptly even when something evicts it out of band.
//
// Refreshes are idempotent and safe to run concurrently: each one is a full
// snapshot and the last Set wins.
type Refresher struct {
	repo   Repository
	store  cache.Store
	cfg    RefresherConfig
	logger *zap.Logger

	stopped   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}

	// spawnMu orders the stopped check against inflight.Add so no refresh
	// can be spawned once Stop has begun waiting on inflight.
	spawnMu  sync.Mutex
	inflight sync.WaitGroup
}

// NewRefresher builds a refresher; call Start to begin refreshing.
func NewRefresher(repo Repository, store cache.Store, cfg RefresherConfig, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		repo:   repo,
		store:  store,
		cfg:    cfg,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// EntryOptions is the expiry policy the refresher attaches to the
// collection entry. The service uses the same policy when it swaps
// snapshots so its writes keep the re-arm callback in place.
func (r *Refresher) EntryOptions() cache.EntryOptions {
	return cache.EntryOptions{
		SlidingExpiration:  r.cfg.SlidingTTL,
		AbsoluteExpiration: r.cfg.AbsoluteTTL,
		Priority:           cache.PriorityNeverRemove,
		OnEvicted:          []cache.EvictionCallback{r.onEvicted},
	}
}

// Start performs the initial asynchronous population and begins ticking.
func (r *Refresher) Start() {
	r.startOnce.Do(func() {
		r.spawnRefresh()
		go r.loop()
	})
}

// Stop cancels the ticker and waits for in-flight refreshes. The collection
// entry is left in place for readers; it simply stops being renewed.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() {
		r.spawnMu.Lock()
		r.stopped.Store(true)
		r.spawnMu.Unlock()
		close(r.stop)
		<-r.done
		r.inflight.Wait()
	})
}

func (r *Refresher) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.refresh()
		}
	}
}

// onEvicted re-arms the refresh ring. Replacement evictions are the normal
// outcome of every refresh and must not trigger another one.
func (r *Refresher) onEvicted(key string, _ any, reason cache.EvictionReason) {
	if reason == cache.EvictionReplaced || r.stopped.Load() {
		return
	}
	r.logger.Debug("collection entry evicted, re-arming refresh",
		zap.String("key", key),
		zap.String("reason", reason.String()))
	r.spawnRefresh()
}

// spawnRefresh runs a refresh without blocking the caller (the eviction
// machinery or Start must not wait on a repository round-trip).
func (r *Refresher) spawnRefresh() {
	r.spawnMu.Lock()
	if r.stopped.Load() {
		r.spawnMu.Unlock()
		return
	}
	r.inflight.Add(1)
	r.spawnMu.Unlock()

	go func() {
		defer r.inflight.Done()
		r.refresh()
	}()
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := r.repo.GetAll(ctx)
	if err != nil {
		// Leave the current entry alone; a stale snapshot beats an empty one.
		r.logger.Error("review collection refresh failed", zap.Error(err))
		return
	}

	r.store.Set(r.cfg.Key, records, r.EntryOptions())
	r.logger.Debug("review collection refreshed", zap.Int("count", len(records)))
}
