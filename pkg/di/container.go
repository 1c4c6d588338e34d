// Package di wires the cache components and the review stack together.
// It manages singleton instances of the collection store, query cache and
// key serializer, and provides factory methods for the service layer.
package di

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-product-reviews/cache"
	"github.com/goliatone/go-product-reviews/pkg/config"
	"github.com/goliatone/go-product-reviews/pkg/reviews"
)

// Container provides dependency injection for the review service.
type Container struct {
	cfg           *config.Config
	store         cache.Store
	queryCache    cache.QueryCache
	keySerializer cache.KeySerializer
	logger        *zap.Logger
}

// NewContainer creates a new DI container with the provided configuration.
// It initializes the collection store, the sturdyc-backed query cache and
// the default key serializer.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	queryCfg := cache.DefaultConfig()
	queryCfg.Capacity = cfg.QueryCacheCapacity
	queryCfg.TTL = cfg.QueryCacheTTL

	queryCache, err := cache.NewQueryCache(queryCfg)
	if err != nil {
		return nil, err
	}

	return &Container{
		cfg:           cfg,
		store:         cache.NewMemoryStore(cache.StoreConfig{}),
		queryCache:    queryCache,
		keySerializer: cache.NewDefaultKeySerializer(),
		logger:        logger,
	}, nil
}

// Store returns the singleton collection store instance.
func (c *Container) Store() cache.Store {
	return c.store
}

// QueryCache returns the singleton query cache instance.
func (c *Container) QueryCache() cache.QueryCache {
	return c.queryCache
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// NewRefresher builds the automated refresh loop for the collection key.
func (c *Container) NewRefresher(repo reviews.Repository) *reviews.Refresher {
	return reviews.NewRefresher(repo, c.store, reviews.RefresherConfig{
		Key:         c.cfg.CacheKey,
		Interval:    c.cfg.CacheRefreshInterval,
		SlidingTTL:  c.cfg.CacheSlidingTTL,
		AbsoluteTTL: c.cfg.CacheAbsoluteTTL,
	}, c.logger)
}

// NewService builds the cache-aside service over repo, sharing the
// refresher's entry policy so service writes keep the refresh ring armed.
func (c *Container) NewService(repo reviews.Repository, refresher *reviews.Refresher) *reviews.Service {
	var entryOpts reviews.EntryOptionsFn
	if refresher != nil {
		entryOpts = refresher.EntryOptions
	}
	return reviews.NewService(repo, c.store, c.queryCache, c.keySerializer, c.cfg.CacheKey, entryOpts, c.logger)
}

// Shutdown stops the container-owned background work.
func (c *Container) Shutdown() {
	c.store.Stop()
}
