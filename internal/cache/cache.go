// Package cache provides a typed read-through cache scoped to a single checker run.
package cache

import "context"

// LoadFunc computes the value for a key on a cache miss.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// ReadThrough memoizes LoadFunc results per key. The first successful load
// for a key wins; entries are never refreshed or invalidated. Failed loads
// are not stored.
//
// ReadThrough is not safe for concurrent use; each run owns its instances.
type ReadThrough[K comparable, V any] struct {
	load      LoadFunc[K, V]
	onResolve func(K, V)
	entries   map[K]V
	loads     int
}

// Option configures a ReadThrough.
type Option[K comparable, V any] func(*ReadThrough[K, V])

// WithOnResolve registers a hook called once per key, right after the value is loaded.
func WithOnResolve[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *ReadThrough[K, V]) {
		c.onResolve = fn
	}
}

// NewReadThrough creates an empty cache backed by load.
func NewReadThrough[K comparable, V any](load LoadFunc[K, V], opts ...Option[K, V]) *ReadThrough[K, V] {
	c := &ReadThrough[K, V]{
		load:    load,
		entries: make(map[K]V),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached value for key, loading it on first access.
func (c *ReadThrough[K, V]) GetOrCompute(ctx context.Context, key K) (V, error) {
	if v, ok := c.entries[key]; ok {
		return v, nil
	}

	c.loads++
	v, err := c.load(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}

	c.entries[key] = v
	if c.onResolve != nil {
		c.onResolve(key, v)
	}
	return v, nil
}

// Peek returns the cached value without loading.
func (c *ReadThrough[K, V]) Peek(key K) (V, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// Len returns the number of cached keys.
func (c *ReadThrough[K, V]) Len() int {
	return len(c.entries)
}

// Loads returns how many times the loader has been invoked.
func (c *ReadThrough[K, V]) Loads() int {
	return c.loads
}
