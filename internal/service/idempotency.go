package service

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Idempotency collapses duplicate requests that carry the same key.
// Concurrent duplicates share one execution; successful results are replayed until the TTL expires.
// Failures are not cached, so a retry with the same key runs again.
type Idempotency struct {
	group singleflight.Group
	cache *cache.Cache
}

// NewIdempotency creates a store whose entries live for ttl.
func NewIdempotency(ttl time.Duration) *Idempotency {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Idempotency{cache: cache.New(ttl, 2*ttl)}
}

// Idempotent runs fn once per (scope, key). An empty key, or a nil store, always runs fn.
// The bool result reports whether the value was produced by another caller: a cache hit,
// or a duplicate that joined an execution already in flight. It is always false on error.
func Idempotent[T any](i *Idempotency, scope, key string, fn func() (T, error)) (T, bool, error) {
	if i == nil || key == "" {
		v, err := fn()
		return v, false, err
	}

	cacheKey := scope + ":" + key
	if v, ok := i.cache.Get(cacheKey); ok {
		if typed, ok := v.(T); ok {
			return typed, true, nil
		}
	}

	ran := false
	v, err, _ := i.group.Do(cacheKey, func() (interface{}, error) {
		ran = true
		res, err := fn()
		if err != nil {
			return nil, err
		}
		i.cache.SetDefault(cacheKey, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, false, fmt.Errorf("unexpected return type from singleflight: %T", v)
	}
	return typed, !ran, nil
}
