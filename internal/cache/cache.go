// Package cache provides a small in-process LRU cache with expiry.
package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Loader fetches the value for a key on a cache miss.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Loading wraps an LRU so that concurrent misses for the same key share one
// load. Failed loads are not cached.
type Loading[K comparable, V any] struct {
	lru   *LRU[K, V]
	load  Loader[K, V]
	group singleflight.Group
}

func NewLoading[K comparable, V any](lru *LRU[K, V], load Loader[K, V]) *Loading[K, V] {
	return &Loading[K, V]{lru: lru, load: load}
}

// Get returns the cached value or loads it.
func (c *Loading[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}
	res, err, _ := c.group.Do(fmt.Sprint(key), func() (any, error) {
		v, err := c.load(ctx, key)
		if err != nil {
			return v, err
		}
		c.lru.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Set overrides the cached value, e.g. after the caller changed it at the source.
func (c *Loading[K, V]) Set(key K, v V) {
	c.lru.Set(key, v)
}

// Forget drops key so the next Get loads it again.
func (c *Loading[K, V]) Forget(key K) {
	c.lru.Delete(key)
}
