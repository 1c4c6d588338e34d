package cache

import (
	"context"
	"errors"
	"testing"
)

// mockQueryCache for testing the GetOrFetch wrapper
type mockQueryCache struct {
	result any
	err    error
}

func (m *mockQueryCache) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	return m.result, m.err
}

func (m *mockQueryCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (m *mockQueryCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	return nil
}

func TestGetOrFetch_NilInterfaceNoPanic(t *testing.T) {
	mock := &mockQueryCache{result: nil, err: nil}

	type SomeInterface interface {
		DoSomething() string
	}

	// A nil any result must convert to the zero value of T, not panic.
	result, err := GetOrFetch[SomeInterface](context.Background(), mock, "test-key", func(ctx context.Context) (SomeInterface, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}

	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_NilPointerNoPanic(t *testing.T) {
	mock := &mockQueryCache{result: (*string)(nil), err: nil}

	result, err := GetOrFetch[*string](context.Background(), mock, "test-key", func(ctx context.Context) (*string, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}

	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_TypeAssertionFailure(t *testing.T) {
	mock := &mockQueryCache{result: "wrong-type", err: nil}

	result, err := GetOrFetch[int](context.Background(), mock, "test-key", func(ctx context.Context) (int, error) {
		return 42, nil
	})

	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}

	if result != 0 {
		t.Errorf("expected zero value (0) but got: %v", result)
	}
}

func TestGetOrFetch_ErrorPropagates(t *testing.T) {
	fetchErr := errors.New("source of truth unavailable")
	mock := &mockQueryCache{result: nil, err: fetchErr}

	result, err := GetOrFetch[string](context.Background(), mock, "test-key", func(ctx context.Context) (string, error) {
		return "", fetchErr
	})

	if !errors.Is(err, fetchErr) {
		t.Errorf("expected fetch error but got: %v", err)
	}

	if result != "" {
		t.Errorf("expected zero value but got: %q", result)
	}
}

func TestGetOrFetch_ValidResult(t *testing.T) {
	expectedValue := "test-value"
	mock := &mockQueryCache{result: expectedValue, err: nil}

	result, err := GetOrFetch[string](context.Background(), mock, "test-key", func(ctx context.Context) (string, error) {
		return expectedValue, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}

	if result != expectedValue {
		t.Errorf("expected '%s' but got: '%s'", expectedValue, result)
	}
}
