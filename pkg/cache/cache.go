// Package cache stores computed values with a TTL, in process or in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound = errors.New("cache: entry not found")
	ErrClosed   = errors.New("cache: closed")
)

// Cache is a TTL key-value store. Get returns ErrNotFound for missing or
// expired keys.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix and reports how many went
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

// DefaultLoadTimeout bounds a shared load once it is detached from the
// caller that started it
const DefaultLoadTimeout = 30 * time.Second

// Loader reads through a Cache. Concurrent misses on the same key share
// one call to the load function.
type Loader[V any] struct {
	cache Cache[V]
	group singleflight.Group
	// OnError observes backend failures; they never fail a load
	OnError func(op, key string, err error)
	// LoadTimeout replaces DefaultLoadTimeout when positive
	LoadTimeout time.Duration
}

func NewLoader[V any](c Cache[V]) *Loader[V] {
	return &Loader[V]{cache: c}
}

func (l *Loader[V]) Cache() Cache[V] {
	return l.cache
}

// GetOrSet returns the cached value for key or computes, stores and returns
// it. hit reports whether the value came from the cache. Errors from load are
// returned and nothing is stored.
func (l *Loader[V]) GetOrSet(ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) (V, error)) (value V, hit bool, err error) {
	v, err := l.cache.Get(ctx, key)
	if err == nil {
		return v, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		l.report("get", key, err)
	}

	// The shared load outlives any single caller: a waiter that gives up
	// returns its own ctx error without failing the others.
	ch := l.group.DoChan(key, func() (shared any, err error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.loadTimeout())
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("cache: load %s panicked: %v", key, r)
			}
		}()

		val, err := load(lctx)
		if err != nil {
			return nil, err
		}
		if err := l.cache.Set(lctx, key, val, ttl); err != nil {
			l.report("set", key, err)
		}
		return val, nil
	})

	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		return res.Val.(V), false, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (l *Loader[V]) loadTimeout() time.Duration {
	if l.LoadTimeout > 0 {
		return l.LoadTimeout
	}
	return DefaultLoadTimeout
}

func (l *Loader[V]) report(op, key string, err error) {
	if l.OnError != nil {
		l.OnError(op, key, err)
	}
}
