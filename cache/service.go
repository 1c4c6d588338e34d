package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidResultType is returned when a cached value cannot be converted
// to the caller's expected type.
var ErrInvalidResultType = errors.New("cache: unexpected result type")

// KeySerializer builds a cache key from a method name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn is the function signature QueryCache expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// QueryCache exposes the read-through caching operations used for
// repository query results (product-scoped visible reviews). It is exported
// so other packages can provide alternate backends; the default is the
// sturdyc adapter in internal/cacheinfra.
type QueryCache interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// GetOrFetch is a type-safe wrapper function that provides generic support for QueryCache.
func GetOrFetch[T any](ctx context.Context, qc QueryCache, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := qc.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T for key %q", ErrInvalidResultType, result, key)
	}
	return typed, nil
}
