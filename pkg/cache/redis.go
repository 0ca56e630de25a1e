package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Payphone-Digital/content-api/pkg/circuit"
	"github.com/Payphone-Digital/content-api/pkg/redis"
)

// Redis stores JSON encoded values in Redis. Calls go through a circuit
// breaker; while it is open every call fails fast with circuit.ErrCircuitOpen.
type Redis[V any] struct {
	client  *redis.Client
	breaker *circuit.Breaker
}

func NewRedis[V any](client *redis.Client, breaker *circuit.Breaker) *Redis[V] {
	return &Redis[V]{client: client, breaker: breaker}
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var (
		zero V
		data []byte
	)
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		data, err = r.client.Get(ctx, key)
		if errors.Is(err, redis.ErrMiss) {
			// a miss is a healthy answer
			return nil
		}
		return err
	})
	if err != nil {
		return zero, err
	}
	if data == nil {
		return zero, ErrNotFound
	}

	// numbers stay json.Number so large integers survive the round trip
	var v V
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return zero, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return v, nil
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, key, data, ttl)
	})
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.client.Delete(ctx, key)
	})
}

func (r *Redis[V]) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var deleted int
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = r.client.DeleteByPrefix(ctx, prefix)
		return err
	})
	return deleted, err
}

// Close is a no-op; the Redis client is owned by the caller
func (r *Redis[V]) Close() error {
	return nil
}
