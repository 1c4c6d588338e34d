package reviews

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-product-reviews/cache"
	"github.com/goliatone/go-product-reviews/pkg/apperrors"
)

// queryMethod namespaces the product-scoped query keys so writes can
// invalidate every product's entry with one prefix delete.
const queryMethod = "GetVisibleForProduct"

// EntryOptionsFn supplies the expiry policy attached whenever the review
// collection is written to the store. The refresher provides one that
// carries its re-arm eviction callback so service writes keep the refresh
// ring alive.
type EntryOptionsFn func() cache.EntryOptions

// Service is the cache-aside access layer in front of the repository. Reads
// are served from the collection snapshot under the well-known key when
// possible; writes commit to the repository first and then patch the cached
// collection with a copy-on-write swap, so concurrent readers never observe
// a half-updated collection.
type Service struct {
	repo      Repository
	store     cache.Store
	queries   cache.QueryCache
	keys      cache.KeySerializer
	cacheKey  string
	entryOpts EntryOptionsFn
	logger    *zap.Logger
	now       func() time.Time

	// mu serializes read-modify-write cycles on the cached collection.
	// Readers go through the store lock-free.
	mu sync.Mutex
}

// NewService wires the cache-aside layer. entryOpts may be nil, in which
// case snapshots are stored without an expiry policy (tests mostly).
func NewService(repo Repository, store cache.Store, queries cache.QueryCache, keys cache.KeySerializer, cacheKey string, entryOpts EntryOptionsFn, logger *zap.Logger) *Service {
	if entryOpts == nil {
		entryOpts = func() cache.EntryOptions { return cache.EntryOptions{Priority: cache.PriorityNeverRemove} }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		store:     store,
		queries:   queries,
		keys:      keys,
		cacheKey:  cacheKey,
		entryOpts: entryOpts,
		logger:    logger,
		now:       time.Now,
	}
}

// GetAll returns every review. A cache hit never touches the repository; a
// miss loads from the repository and seeds the cache inline so the next
// reader hits.
func (s *Service) GetAll(ctx context.Context) ([]Review, error) {
	if snap, ok := s.snapshot(); ok {
		return snap, nil
	}

	records, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	s.swap(func([]Review) []Review { return records })
	s.logger.Debug("seeded review collection cache on miss", zap.Int("count", len(records)))
	return records, nil
}

// GetVisible returns all non-hidden reviews, filtering the cached
// collection when it is warm.
func (s *Service) GetVisible(ctx context.Context) ([]Review, error) {
	if snap, ok := s.snapshot(); ok {
		return filterReviews(snap, func(r Review) bool { return !r.IsHidden }), nil
	}
	return s.repo.GetVisible(ctx)
}

// GetVisibleForProduct returns non-hidden reviews for one product. On a
// collection-cache miss the result is read through the query cache, which
// absorbs stampedes on popular products.
func (s *Service) GetVisibleForProduct(ctx context.Context, productID int64) ([]Review, error) {
	if productID < 1 {
		return nil, apperrors.InvalidArgument("product ids cannot be less than 1")
	}

	if snap, ok := s.snapshot(); ok {
		return filterReviews(snap, func(r Review) bool {
			return r.ProductID == productID && !r.IsHidden
		}), nil
	}

	key := s.keys.SerializeKey(queryMethod, productID)
	return cache.GetOrFetch(ctx, s.queries, key, func(ctx context.Context) ([]Review, error) {
		return s.repo.GetVisibleForProduct(ctx, productID)
	})
}

// GetByID returns one review. With a warm collection the snapshot is
// scanned first; a record missing from the snapshot but present in the
// repository is folded into the cached collection so the next read hits.
func (s *Service) GetByID(ctx context.Context, id int64) (Review, error) {
	if id < 1 {
		return Review{}, apperrors.InvalidArgument("ids cannot be less than 1")
	}

	snap, warm := s.snapshot()
	if warm {
		for _, r := range snap {
			if r.ID == id {
				return r, nil
			}
		}
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Review{}, err
	}

	if warm {
		s.patchIfWarm(func(cur []Review) []Review { return replaceByID(cur, *record) })
	}
	return *record, nil
}

// Create persists a new review and returns it with its assigned id. The
// creation timestamp is server-assigned and the record always starts
// visible, whatever the client sent. A warm collection cache is patched in
// place; a cold one simply picks the record up on the next load.
func (s *Service) Create(ctx context.Context, input *CreateInput) (Review, error) {
	if input == nil {
		return Review{}, apperrors.InvalidArgument("the review to create cannot be nil")
	}
	if err := input.Validate(); err != nil {
		return Review{}, err
	}

	record := &Review{
		Header:    input.Header,
		Content:   input.Content,
		ProductID: input.ProductID,
		CreatedAt: s.now(),
		IsHidden:  false,
	}

	if _, err := s.repo.Create(ctx, record); err != nil {
		return Review{}, err
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return Review{}, err
	}

	s.patchIfWarm(func(cur []Review) []Review { return replaceByID(cur, *record) })
	s.invalidateQueries(ctx)

	s.logger.Info("created review",
		zap.Int64("id", record.ID),
		zap.Int64("product_id", record.ProductID))
	return *record, nil
}

// UpdateVisibility applies a visibility patch to the review with the given
// id. The current record always comes from the repository, never the cache,
// since the patch must apply to the authoritative field set. On success the
// cached collection is patched by replace-by-id.
func (s *Service) UpdateVisibility(ctx context.Context, id int64, patch VisibilityPatch) error {
	if id < 1 {
		return apperrors.InvalidArgument("ids cannot be less than 1")
	}
	if patch == nil {
		return apperrors.InvalidArgument("the patch document cannot be nil")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	candidate := *current
	if err := patch.Apply(&candidate); err != nil {
		return err
	}
	if err := candidate.Validate(); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, &candidate); err != nil {
		return err
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return err
	}

	s.patchIfWarm(func(cur []Review) []Review { return replaceByID(cur, candidate) })
	s.invalidateQueries(ctx)

	s.logger.Info("patched review visibility",
		zap.Int64("id", id),
		zap.Bool("is_hidden", candidate.IsHidden))
	return nil
}

// snapshot returns the cached collection if the well-known key is warm.
func (s *Service) snapshot() ([]Review, bool) {
	v, ok := s.store.TryGet(s.cacheKey)
	if !ok {
		return nil, false
	}
	snap, ok := v.([]Review)
	return snap, ok
}

// swap replaces the cached collection with mutate applied to the current
// snapshot, under the service mutex so concurrent patches do not lose
// updates. The snapshot passed to mutate must not be modified in place.
func (s *Service) swap(mutate func([]Review) []Review) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, _ := s.snapshot()
	s.store.Set(s.cacheKey, mutate(cur), s.entryOpts())
}

// patchIfWarm is swap that no-ops when the key went cold between the
// caller's warmth check and the lock. Patching a cold slot would install a
// partial collection as the whole one.
func (s *Service) patchIfWarm(mutate func([]Review) []Review) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.snapshot()
	if !ok {
		return
	}
	s.store.Set(s.cacheKey, mutate(cur), s.entryOpts())
}

// invalidateQueries drops every product-scoped query entry after a write.
// Cache sync after a successful commit is best-effort: failure here can
// only cause temporary staleness, never data loss.
func (s *Service) invalidateQueries(ctx context.Context) {
	if s.queries == nil {
		return
	}
	if err := s.queries.DeleteByPrefix(ctx, queryMethod); err != nil {
		s.logger.Warn("query cache invalidation failed", zap.Error(err))
	}
}

// replaceByID returns a copy of snap with record replacing any entry with
// the same id, appending if absent. Dedup by id keeps repeated
// create/read cycles from accumulating duplicates in the collection.
func replaceByID(snap []Review, record Review) []Review {
	out := make([]Review, 0, len(snap)+1)
	replaced := false
	for _, r := range snap {
		if r.ID == record.ID {
			out = append(out, record)
			replaced = true
			continue
		}
		out = append(out, r)
	}
	if !replaced {
		out = append(out, record)
	}
	return out
}

func filterReviews(snap []Review, keep func(Review) bool) []Review {
	out := make([]Review, 0, len(snap))
	for _, r := range snap {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
